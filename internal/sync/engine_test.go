// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package sync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/pizzahunt/internal/metrics"
	"github.com/tomtom215/pizzahunt/internal/models"
	"github.com/tomtom215/pizzahunt/internal/queue"
	"github.com/tomtom215/pizzahunt/internal/remote"
)

type namedPayload struct {
	Name string `json:"name"`
}

// fakeSubmitter records every batch and answers with a configurable result.
type fakeSubmitter struct {
	mu      sync.Mutex
	batches [][]string
	calls   atomic.Int32

	// fail makes every call return a transport failure.
	fail atomic.Bool

	// entered and release, when set, hold the call open until released.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeSubmitter) SubmitBatch(ctx context.Context, payloads []json.RawMessage) remote.Result {
	f.calls.Add(1)

	names := make([]string, len(payloads))
	for i, p := range payloads {
		var np namedPayload
		if err := json.Unmarshal(p, &np); err != nil {
			return remote.Err(fmt.Errorf("%w: %w", remote.ErrRemoteRejected, err))
		}
		names[i] = np.Name
	}
	f.mu.Lock()
	f.batches = append(f.batches, names)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return remote.Err(fmt.Errorf("%w: %w", remote.ErrTransportFailure, ctx.Err()))
		}
	}

	if f.fail.Load() {
		return remote.Err(fmt.Errorf("%w: connection refused", remote.ErrTransportFailure))
	}

	created := make([]models.Pizza, len(names))
	for i, n := range names {
		created[i] = models.Pizza{ID: "remote-" + n, PizzaName: n}
	}
	return remote.Ok(created)
}

func (f *fakeSubmitter) batch(i int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.batches) {
		return nil
	}
	return f.batches[i]
}

// fakeMonitor is a manually driven connectivity signal.
type fakeMonitor struct {
	online      atomic.Bool
	transitions chan struct{}
}

func newFakeMonitor(online bool) *fakeMonitor {
	m := &fakeMonitor{transitions: make(chan struct{}, 1)}
	m.online.Store(online)
	return m
}

func (m *fakeMonitor) Online() bool                 { return m.online.Load() }
func (m *fakeMonitor) Transitions() <-chan struct{} { return m.transitions }

func (m *fakeMonitor) goOnline() {
	if !m.online.Swap(true) {
		m.transitions <- struct{}{}
	}
}

func openQueue(t *testing.T) *queue.BadgerQueue {
	t.Helper()
	cfg := queue.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "queue")
	cfg.SyncWrites = false
	q, err := queue.OpenForTesting(&cfg)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func appendNames(t *testing.T, q *queue.BadgerQueue, names ...string) {
	t.Helper()
	for _, n := range names {
		if _, err := q.Append(context.Background(), "", namedPayload{Name: n}); err != nil {
			t.Fatalf("append %s: %v", n, err)
		}
	}
}

func queuedNames(t *testing.T, q *queue.BadgerQueue) []string {
	t.Helper()
	records, err := q.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	out := make([]string, len(records))
	for i := range records {
		var np namedPayload
		if err := records[i].UnmarshalPayload(&np); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		out[i] = np.Name
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestOfflineThenOnlineSyncsInOrder(t *testing.T) {
	q := openQueue(t)
	sub := &fakeSubmitter{}
	mon := newFakeMonitor(false)
	engine := NewEngine(q, sub, mon, DefaultConfig())

	appendNames(t, q, "X", "Y")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- engine.Serve(ctx) }()

	// Offline: nothing is sent.
	time.Sleep(20 * time.Millisecond)
	if sub.calls.Load() != 0 {
		t.Fatalf("expected no remote calls while offline, got %d", sub.calls.Load())
	}

	mon.goOnline()
	waitFor(t, "queue to drain", func() bool { return len(queuedNames(t, q)) == 0 })

	if got := sub.calls.Load(); got != 1 {
		t.Errorf("remote batch calls = %d, want 1", got)
	}
	if got := sub.batch(0); !reflect.DeepEqual(got, []string{"X", "Y"}) {
		t.Errorf("batch = %v, want [X Y]", got)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v", err)
	}
}

func TestFailedSyncKeepsRecordsAndRetries(t *testing.T) {
	q := openQueue(t)
	sub := &fakeSubmitter{}
	sub.fail.Store(true)
	engine := NewEngine(q, sub, newFakeMonitor(true), DefaultConfig())

	appendNames(t, q, "X", "Y")

	if _, err := engine.TriggerSync(context.Background()); !errors.Is(err, remote.ErrTransportFailure) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if got := queuedNames(t, q); !reflect.DeepEqual(got, []string{"X", "Y"}) {
		t.Fatalf("queue after failure = %v, want [X Y]", got)
	}
	if engine.State() != StateIdle {
		t.Errorf("engine should return to idle after failure")
	}
	if engine.Status().LastError == "" {
		t.Error("status should report the failure")
	}

	sub.fail.Store(false)
	res, err := engine.TriggerSync(context.Background())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if res.Sent != 2 || len(res.Pizzas) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if !reflect.DeepEqual(sub.batch(0), sub.batch(1)) {
		t.Errorf("retry sent %v, first attempt sent %v", sub.batch(1), sub.batch(0))
	}
	if got := queuedNames(t, q); len(got) != 0 {
		t.Errorf("queue after retry = %v, want empty", got)
	}
	if engine.Status().LastError != "" {
		t.Error("successful attempt should clear the last error")
	}
}

func TestOverlappingTriggersMakeOneRemoteCall(t *testing.T) {
	q := openQueue(t)
	sub := &fakeSubmitter{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	engine := NewEngine(q, sub, newFakeMonitor(true), DefaultConfig())
	appendNames(t, q, "A")

	first := make(chan error, 1)
	go func() {
		_, err := engine.TriggerSync(context.Background())
		first <- err
	}()
	<-sub.entered

	if engine.State() != StateSending {
		t.Fatalf("state = %v, want sending", engine.State())
	}
	for i := 0; i < 3; i++ {
		if _, err := engine.TriggerSync(context.Background()); !errors.Is(err, ErrSyncInProgress) {
			t.Errorf("overlapping trigger returned %v, want ErrSyncInProgress", err)
		}
	}

	close(sub.release)
	if err := <-first; err != nil {
		t.Fatalf("first attempt failed: %v", err)
	}
	if got := sub.calls.Load(); got != 1 {
		t.Errorf("remote batch calls = %d, want 1", got)
	}
}

func TestAppendDuringSyncSurvivesClear(t *testing.T) {
	q := openQueue(t)
	sub := &fakeSubmitter{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	engine := NewEngine(q, sub, newFakeMonitor(true), DefaultConfig())
	appendNames(t, q, "A", "B")

	done := make(chan error, 1)
	go func() {
		_, err := engine.TriggerSync(context.Background())
		done <- err
	}()
	<-sub.entered

	appendNames(t, q, "C")
	close(sub.release)

	if err := <-done; err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if got := queuedNames(t, q); !reflect.DeepEqual(got, []string{"C"}) {
		t.Errorf("queue after sync = %v, want [C]", got)
	}
}

func TestAttemptTimeoutKeepsRecords(t *testing.T) {
	q := openQueue(t)
	sub := &fakeSubmitter{release: make(chan struct{})}
	defer close(sub.release)
	engine := NewEngine(q, sub, newFakeMonitor(true), Config{AttemptTimeout: 50 * time.Millisecond})
	appendNames(t, q, "slow")

	_, err := engine.TriggerSync(context.Background())
	if !errors.Is(err, remote.ErrTransportFailure) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timed out transport failure, got %v", err)
	}
	if got := queuedNames(t, q); !reflect.DeepEqual(got, []string{"slow"}) {
		t.Errorf("queue after timeout = %v", got)
	}
}

func TestEmptyQueueIsNoop(t *testing.T) {
	q := openQueue(t)
	sub := &fakeSubmitter{}
	engine := NewEngine(q, sub, newFakeMonitor(true), DefaultConfig())

	res, err := engine.TriggerSync(context.Background())
	if err != nil {
		t.Fatalf("empty sync returned error: %v", err)
	}
	if res.Sent != 0 {
		t.Errorf("Sent = %d, want 0", res.Sent)
	}
	if sub.calls.Load() != 0 {
		t.Error("empty queue must not contact the remote")
	}
}

func TestStartupOnlineSyncsWithoutTransition(t *testing.T) {
	q := openQueue(t)
	sub := &fakeSubmitter{}
	mon := newFakeMonitor(true)
	engine := NewEngine(q, sub, mon, DefaultConfig())
	appendNames(t, q, "boot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = engine.Serve(ctx) }()

	waitFor(t, "startup sync", func() bool { return sub.calls.Load() == 1 })
	waitFor(t, "queue to drain", func() bool { return len(queuedNames(t, q)) == 0 })

	if len(mon.transitions) != 0 {
		t.Error("startup sync must not consume a transition")
	}
}

func TestRetryTickerResubmitsWhileOnline(t *testing.T) {
	q := openQueue(t)
	sub := &fakeSubmitter{}
	sub.fail.Store(true)
	engine := NewEngine(q, sub, newFakeMonitor(true), Config{RetryInterval: 20 * time.Millisecond})
	appendNames(t, q, "R")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = engine.Serve(ctx) }()

	waitFor(t, "retries", func() bool { return sub.calls.Load() >= 3 })
	sub.fail.Store(false)
	waitFor(t, "queue to drain", func() bool { return len(queuedNames(t, q)) == 0 })
}

type brokenQueue struct{}

func (brokenQueue) ReadAll(context.Context) ([]queue.Record, error) {
	return nil, fmt.Errorf("%w: disk gone", queue.ErrStorageUnavailable)
}

func (brokenQueue) Clear(context.Context, []uint64) error { return nil }

func TestStorageFailureSurfaces(t *testing.T) {
	t.Parallel()

	engine := NewEngine(brokenQueue{}, &fakeSubmitter{}, newFakeMonitor(true), DefaultConfig())
	if _, err := engine.TriggerSync(context.Background()); !errors.Is(err, queue.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

// clearOnceFails is a real queue whose first Clear fails after the remote
// has already accepted the batch.
type clearOnceFails struct {
	*queue.BadgerQueue
	failed atomic.Bool
}

func (q *clearOnceFails) Clear(ctx context.Context, ids []uint64) error {
	if q.failed.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: disk full", queue.ErrStorageUnavailable)
	}
	return q.BadgerQueue.Clear(ctx, ids)
}

// rawSubmitter keeps a copy of every payload exactly as sent.
type rawSubmitter struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *rawSubmitter) SubmitBatch(_ context.Context, payloads []json.RawMessage) remote.Result {
	sent := make([]string, len(payloads))
	created := make([]models.Pizza, len(payloads))
	for i, p := range payloads {
		sent[i] = string(p)
		created[i] = models.Pizza{ID: fmt.Sprintf("remote-%d", i)}
	}
	r.mu.Lock()
	r.batches = append(r.batches, sent)
	r.mu.Unlock()
	return remote.Ok(created)
}

func TestClearFailureAfterAcceptKeepsRecordsForReplay(t *testing.T) {
	q := &clearOnceFails{BadgerQueue: openQueue(t)}
	sub := &rawSubmitter{}
	engine := NewEngine(q, sub, newFakeMonitor(true), DefaultConfig())

	ctx := context.Background()
	keys := []string{"key-x", "key-y"}
	for i, name := range []string{"X", "Y"} {
		in := models.PizzaInput{PizzaName: name, CreatedBy: "offline", IdempotencyKey: keys[i]}
		if _, err := q.Append(ctx, in.IdempotencyKey, in); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
	}

	storageBefore := testutil.ToFloat64(metrics.SyncAttempts.WithLabelValues("storage"))

	res, err := engine.TriggerSync(ctx)
	if !errors.Is(err, queue.ErrStorageUnavailable) {
		t.Fatalf("first attempt error = %v, want ErrStorageUnavailable", err)
	}
	if res.Sent != 0 || len(res.Pizzas) != 2 {
		t.Errorf("first attempt result = %+v, want 0 sent and 2 remote pizzas", res)
	}
	if got := testutil.ToFloat64(metrics.SyncAttempts.WithLabelValues("storage")) - storageBefore; got != 1 {
		t.Errorf("storage outcome delta = %v, want 1", got)
	}
	if engine.Status().LastError == "" {
		t.Error("status should report the clear failure")
	}

	records, err := q.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("queue holds %d records after failed clear, want 2", len(records))
	}
	for i := range records {
		var in models.PizzaInput
		if err := records[i].UnmarshalPayload(&in); err != nil {
			t.Fatalf("unmarshal record %d: %v", i, err)
		}
		if in.PizzaName != []string{"X", "Y"}[i] || in.IdempotencyKey != keys[i] {
			t.Errorf("record %d = %+v, want %s with key %s", i, in, []string{"X", "Y"}[i], keys[i])
		}
	}

	res, err = engine.TriggerSync(ctx)
	if err != nil {
		t.Fatalf("second attempt error = %v", err)
	}
	if res.Sent != 2 {
		t.Errorf("second attempt Sent = %d, want 2", res.Sent)
	}

	sub.mu.Lock()
	batches := sub.batches
	sub.mu.Unlock()
	if len(batches) != 2 {
		t.Fatalf("remote received %d batches, want 2", len(batches))
	}
	if !reflect.DeepEqual(batches[0], batches[1]) {
		t.Errorf("replayed batch differs:\nfirst:  %v\nsecond: %v", batches[0], batches[1])
	}
	for i, key := range keys {
		var in models.PizzaInput
		if err := json.Unmarshal([]byte(batches[1][i]), &in); err != nil {
			t.Fatalf("decode replayed payload %d: %v", i, err)
		}
		if in.IdempotencyKey != key {
			t.Errorf("replayed payload %d key = %q, want %q", i, in.IdempotencyKey, key)
		}
	}

	if n, _ := q.Len(ctx); n != 0 {
		t.Errorf("queue holds %d records after replay, want 0", n)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if StateIdle.String() != "idle" || StateSending.String() != "sending" {
		t.Errorf("unexpected state strings")
	}
}
