// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/pizzahunt/internal/metrics"
)

func TestBreakerOpensAfterFailures(t *testing.T) {
	b := New("test-opens", DefaultConfig())
	if b.State() != "closed" {
		t.Fatalf("initial state = %s, want closed", b.State())
	}

	failures := 0
	for i := 0; i < 10; i++ {
		err := b.Execute(func() error {
			if i >= 3 {
				return errors.New("simulated failure")
			}
			return nil
		})
		if err != nil {
			failures++
		}
	}
	if failures != 7 {
		t.Errorf("expected 7 failures, got %d", failures)
	}
	if b.State() != "open" {
		t.Fatalf("state after 70%% failures = %s, want open", b.State())
	}

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if called {
		t.Error("function should not run while open")
	}
	if !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected wrapped ErrOpenState, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-opens")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
}

func TestBreakerStaysClosedBelowMinimumRequests(t *testing.T) {
	b := New("test-min", DefaultConfig())
	for i := 0; i < 9; i++ {
		_ = b.Execute(func() error { return errors.New("fail") })
	}
	if b.State() != "closed" {
		t.Errorf("state = %s, want closed below minimum requests", b.State())
	}
}

func TestBreakerIsSuccessfulIgnoresErrors(t *testing.T) {
	benign := errors.New("rejected by server")
	cfg := DefaultConfig()
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, benign) }
	b := New("test-benign", cfg)

	for i := 0; i < 20; i++ {
		if err := b.Execute(func() error { return benign }); !errors.Is(err, benign) {
			t.Fatalf("expected benign error passthrough, got %v", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("benign errors should not trip the breaker, state = %s", b.State())
	}
}

func TestBreakerRecoversAfterTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinRequests = 1
	cfg.FailureRatio = 0.5
	cfg.Timeout = 50 * time.Millisecond
	b := New("test-recover", cfg)

	_ = b.Execute(func() error { return errors.New("fail") })
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}

	time.Sleep(100 * time.Millisecond)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe request failed: %v", err)
	}
	if b.State() == "open" {
		t.Errorf("breaker should leave open state after a successful probe")
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	cases := map[gobreaker.State]string{
		gobreaker.StateClosed:   "closed",
		gobreaker.StateHalfOpen: "half-open",
		gobreaker.StateOpen:     "open",
		gobreaker.State(99):     "unknown",
	}
	for in, want := range cases {
		if got := StateString(in); got != want {
			t.Errorf("StateString(%v) = %q, want %q", in, got, want)
		}
	}
}
