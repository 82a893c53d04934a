// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/metrics"
	"github.com/tomtom215/pizzahunt/internal/models"
	"github.com/tomtom215/pizzahunt/internal/queue"
	"github.com/tomtom215/pizzahunt/internal/remote"
)

// ErrSyncInProgress is returned by TriggerSync when another attempt is
// already sending. The caller's trigger is coalesced into that attempt.
var ErrSyncInProgress = errors.New("sync attempt already in progress")

// Queue is the subset of the offline queue the engine drains.
type Queue interface {
	ReadAll(ctx context.Context) ([]queue.Record, error)
	Clear(ctx context.Context, ids []uint64) error
}

// Submitter sends a batch to the remote write endpoint.
type Submitter interface {
	SubmitBatch(ctx context.Context, payloads []json.RawMessage) remote.Result
}

// Monitor supplies the connectivity signal and its online transitions.
type Monitor interface {
	Online() bool
	Transitions() <-chan struct{}
}

// State of the engine.
type State int32

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

// Config controls sync attempts.
type Config struct {
	// AttemptTimeout bounds the remote call of one attempt. Zero disables it.
	AttemptTimeout time.Duration

	// RetryInterval re-attempts while online. Zero waits for the next
	// transition or explicit trigger instead.
	RetryInterval time.Duration
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		AttemptTimeout: 30 * time.Second,
	}
}

// Result describes one completed attempt.
type Result struct {
	// Sent is the number of records accepted and cleared.
	Sent int `json:"sent"`

	// Pizzas are the entities the remote created, in submission order.
	Pizzas []models.Pizza `json:"pizzas,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Status is a point-in-time view of the engine for status endpoints.
type Status struct {
	State       string    `json:"state"`
	LastAttempt time.Time `json:"last_attempt,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	TotalSent   int64     `json:"total_sent"`
}

// Engine replays queued writes to the remote endpoint. At most one attempt
// runs at a time; records are cleared only after the remote accepts the
// whole batch, and only the records that batch contained.
type Engine struct {
	queue     Queue
	submitter Submitter
	monitor   Monitor
	config    Config

	state     atomic.Int32
	totalSent atomic.Int64

	statusMu    sync.RWMutex
	lastAttempt time.Time
	lastSuccess time.Time
	lastErr     error
}

// NewEngine creates an engine in the idle state.
func NewEngine(q Queue, s Submitter, m Monitor, cfg Config) *Engine {
	return &Engine{
		queue:     q,
		submitter: s,
		monitor:   m,
		config:    cfg,
	}
}

// State returns the current engine state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Status returns a snapshot for reporting.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()

	st := Status{
		State:       e.State().String(),
		LastAttempt: e.lastAttempt,
		LastSuccess: e.lastSuccess,
		TotalSent:   e.totalSent.Load(),
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

// TriggerSync runs one attempt. It returns ErrSyncInProgress without
// contacting the remote when an attempt is already sending.
func (e *Engine) TriggerSync(ctx context.Context) (Result, error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateSending)) {
		metrics.RecordSyncAttempt("coalesced", 0, 0)
		return Result{}, ErrSyncInProgress
	}
	defer e.state.Store(int32(StateIdle))

	ctx = logging.ContextWithAttemptID(ctx, logging.GenerateAttemptID())
	start := time.Now()

	res, outcome, err := e.attempt(ctx)
	res.Duration = time.Since(start)
	metrics.RecordSyncAttempt(outcome, res.Duration, res.Sent)
	e.recordStatus(start, err)

	return res, err
}

func (e *Engine) attempt(ctx context.Context) (Result, string, error) {
	log := logging.Ctx(ctx)

	records, err := e.queue.ReadAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Sync attempt could not read the offline queue")
		return Result{}, "storage", fmt.Errorf("read queue: %w", err)
	}
	if len(records) == 0 {
		log.Debug().Msg("Offline queue empty, nothing to sync")
		return Result{}, "empty", nil
	}

	ids := make([]uint64, len(records))
	payloads := make([]json.RawMessage, len(records))
	for i := range records {
		ids[i] = records[i].ID
		payloads[i] = records[i].Payload
	}

	log.Info().Int("records", len(records)).Msg("Submitting offline queue to remote")

	submitCtx := ctx
	if e.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		submitCtx, cancel = context.WithTimeout(ctx, e.config.AttemptTimeout)
		defer cancel()
	}

	result := e.submitter.SubmitBatch(submitCtx, payloads)
	if !result.IsOk() {
		outcome := remote.Classify(result.Err())
		log.Warn().Err(result.Err()).Str("outcome", outcome).Int("records", len(records)).
			Msg("Sync attempt failed, records kept for the next attempt")
		return Result{}, outcome, fmt.Errorf("submit batch of %d records: %w", len(records), result.Err())
	}

	if err := e.queue.Clear(ctx, ids); err != nil {
		// The remote has the batch; the next attempt resubmits and the
		// server deduplicates on the idempotency keys.
		log.Error().Err(err).Int("records", len(records)).Msg("Batch accepted but clearing the offline queue failed")
		return Result{Pizzas: result.Pizzas()}, "storage", fmt.Errorf("clear synced records: %w", err)
	}

	e.totalSent.Add(int64(len(records)))
	log.Info().Int("records", len(records)).Msg("Offline queue synced")
	return Result{Sent: len(records), Pizzas: result.Pizzas()}, "success", nil
}

func (e *Engine) recordStatus(start time.Time, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.lastAttempt = start
	e.lastErr = err
	if err == nil {
		e.lastSuccess = start
	}
}

// Serve drains the queue at startup when already online, then once per
// online transition and, if configured, on every retry tick while online.
// Events are handled one at a time. It implements suture.Service.
func (e *Engine) Serve(ctx context.Context) error {
	if e.monitor.Online() {
		e.run(ctx, "startup")
	}

	var retry <-chan time.Time
	if e.config.RetryInterval > 0 {
		ticker := time.NewTicker(e.config.RetryInterval)
		defer ticker.Stop()
		retry = ticker.C
	}

	transitions := e.monitor.Transitions()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-transitions:
			e.run(ctx, "transition")
		case <-retry:
			if e.monitor.Online() {
				e.run(ctx, "retry")
			}
		}
	}
}

// run performs a triggered attempt. Failures are logged and the queue keeps
// its records for the next trigger.
func (e *Engine) run(ctx context.Context, trigger string) {
	_, err := e.TriggerSync(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		logging.Debug().Str("trigger", trigger).Msg("Sync trigger coalesced into running attempt")
	case ctx.Err() != nil:
	default:
		logging.Warn().Err(err).Str("trigger", trigger).Msg("Triggered sync did not complete")
	}
}

// String implements fmt.Stringer for supervisor logs.
func (e *Engine) String() string {
	return "sync-engine"
}
