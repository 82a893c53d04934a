// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var errSimulated = errors.New("simulated failure")

// stubService is a controllable suture.Service.
type stubService struct {
	name       string
	startCount atomic.Int32
	stopCount  atomic.Int32
	failCount  atomic.Int32

	mu       sync.Mutex
	maxFails int32
	err      error
}

func newStubService(name string) *stubService {
	return &stubService{name: name}
}

func (s *stubService) Serve(ctx context.Context) error {
	s.startCount.Add(1)
	defer s.stopCount.Add(1)

	s.mu.Lock()
	err, maxFails := s.err, s.maxFails
	s.mu.Unlock()

	if maxFails > 0 && s.failCount.Add(1) <= maxFails {
		return errSimulated
	}
	if err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubService) setFailCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxFails = int32(n)
}

func (s *stubService) starts() int32 { return s.startCount.Load() }

func (s *stubService) String() string { return s.name }

var _ suture.Service = (*stubService)(nil)

// waitForStarts polls until svc has started at least n times.
func waitForStarts(t *testing.T, svc *stubService, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.starts() >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s started %d times, want at least %d", svc.name, svc.starts(), n)
}

func TestStubService(t *testing.T) {
	t.Run("fails N times then runs", func(t *testing.T) {
		svc := newStubService("retry")
		svc.setFailCount(2)

		for i := 0; i < 2; i++ {
			if err := svc.Serve(context.Background()); !errors.Is(err, errSimulated) {
				t.Fatalf("call %d: got %v, want simulated failure", i+1, err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("third call: got %v, want deadline exceeded", err)
		}
		if svc.starts() != 3 {
			t.Errorf("starts = %d, want 3", svc.starts())
		}
	})
}

func TestErrDoNotRestartIsHonored(t *testing.T) {
	svc := newStubService("one-shot")
	svc.setError(suture.ErrDoNotRestart)

	sup := suture.New("no-restart", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
	})
	sup.Add(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go func() { _ = sup.Serve(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if svc.starts() != 1 {
		t.Errorf("starts = %d, want exactly 1", svc.starts())
	}
}
