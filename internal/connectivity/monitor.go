// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

// Package connectivity tracks whether the remote pizza endpoint is reachable.
//
// The Monitor probes once at construction, so Online is meaningful before Run
// starts, and then polls. It publishes one notification on Transitions for
// each offline to online change. Startup while already online is not a
// transition; the sync engine checks Online itself at startup.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/metrics"
)

// State is the two-valued reachability signal.
type State int32

const (
	StateOffline State = iota
	StateOnline
)

func (s State) String() string {
	if s == StateOnline {
		return "online"
	}
	return "offline"
}

// Prober reports whether the remote endpoint is currently reachable.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) bool

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context) bool { return f(ctx) }

// Config controls polling.
type Config struct {
	// PollInterval is the time between probes.
	PollInterval time.Duration

	// ProbeTimeout bounds a single probe.
	ProbeTimeout time.Duration
}

// DefaultConfig returns the default polling configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		ProbeTimeout: 3 * time.Second,
	}
}

// Monitor holds the current connectivity state.
type Monitor struct {
	prober Prober
	config Config

	online      atomic.Bool
	transitions chan struct{}

	// setMu serializes state changes so a transition is observed exactly once.
	setMu sync.Mutex
}

// NewMonitor probes once and returns a monitor seeded with the result. The
// initial state never produces a notification.
func NewMonitor(ctx context.Context, prober Prober, cfg Config) *Monitor {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = def.ProbeTimeout
	}

	m := &Monitor{
		prober:      prober,
		config:      cfg,
		transitions: make(chan struct{}, 1),
	}

	initial := m.probe(ctx)
	m.online.Store(initial)
	if initial {
		metrics.ConnectivityOnline.Set(1)
	} else {
		metrics.ConnectivityOnline.Set(0)
	}
	logging.Info().Str("state", m.State().String()).Msg("Initial connectivity state")
	return m
}

// Online reports the current signal.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// State reports the current signal as a State.
func (m *Monitor) State() State {
	if m.Online() {
		return StateOnline
	}
	return StateOffline
}

// Transitions delivers one value per offline to online transition. A
// notification that has not been consumed yet absorbs later ones.
func (m *Monitor) Transitions() <-chan struct{} {
	return m.transitions
}

// SetOnline applies an externally observed signal.
func (m *Monitor) SetOnline(online bool) {
	m.setMu.Lock()
	defer m.setMu.Unlock()

	was := m.online.Swap(online)
	if was == online {
		return
	}

	metrics.SetOnline(online)
	if !online {
		logging.Warn().Msg("Remote endpoint unreachable, new pizzas will be queued locally")
		return
	}

	logging.Info().Msg("Remote endpoint reachable again")
	select {
	case m.transitions <- struct{}{}:
	default:
	}
}

func (m *Monitor) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.config.ProbeTimeout)
	defer cancel()
	return m.prober.Probe(probeCtx)
}

// Serve polls the prober until ctx is canceled. It implements suture.Service.
func (m *Monitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.SetOnline(m.probe(ctx))
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (m *Monitor) String() string {
	return "connectivity-monitor"
}
