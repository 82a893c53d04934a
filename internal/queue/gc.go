// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package queue

import (
	"context"
	"time"

	"github.com/tomtom215/pizzahunt/internal/logging"
)

// Collector periodically reclaims value log space left behind by cleared
// records. It implements suture.Service.
type Collector struct {
	queue    *BadgerQueue
	interval time.Duration
}

// NewCollector creates a collector for q using q's configured GC interval.
func NewCollector(q *BadgerQueue) *Collector {
	interval := q.config.GCInterval
	if interval <= 0 {
		interval = DefaultConfig().GCInterval
	}
	return &Collector{queue: q, interval: interval}
}

// Serve runs GC every interval until ctx is canceled.
func (c *Collector) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := c.queue.RunGC(); err != nil {
				logging.Error().Err(err).Msg("Offline queue GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Offline queue GC completed")
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (c *Collector) String() string {
	return "queue-gc"
}
