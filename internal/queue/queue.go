// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

// Package queue is the client's local durable queue of pizza creates made
// while the remote endpoint was unreachable.
//
// Records live in BadgerDB under the "new_pizza:" prefix, keyed by a
// big-endian sequence number so key order is insertion order. The local ID
// space is private to the device and has nothing to do with the server's
// pizza IDs.
//
// A sync cycle reads a snapshot with ReadAll and, once the remote accepts the
// batch, removes exactly the IDs it read with Clear. A record appended while
// the batch is in flight is not in that ID set and survives to the next cycle.
package queue

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/metrics"
)

const (
	prefixRecord     = "new_pizza:"
	keySequence      = "meta:sequence"
	keySchemaVersion = "meta:schema_version"

	// schemaVersion is bumped only by additive layout changes.
	schemaVersion = "1"

	sequenceBandwidth = 100
)

var (
	// ErrStorageUnavailable wraps every failure to open, read or write the
	// queue. A create that fails this way has nowhere else to go and must be
	// reported to the person who made it.
	ErrStorageUnavailable = errors.New("offline queue storage unavailable")

	// ErrNilPayload is returned by Append for an empty payload.
	ErrNilPayload = errors.New("payload cannot be nil")

	// ErrQueueClosed is returned after Close. It also matches ErrStorageUnavailable.
	ErrQueueClosed = fmt.Errorf("queue is closed: %w", ErrStorageUnavailable)
)

// Record is one queued create. Records are immutable once appended.
type Record struct {
	// ID is the local insertion-order identifier.
	ID uint64 `json:"id"`

	// IdempotencyKey is sent with the payload so a replay after a crash
	// between remote acceptance and Clear does not create a duplicate.
	IdempotencyKey string `json:"idempotency_key"`

	// Payload is the create body exactly as it will be sent.
	Payload json.RawMessage `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the payload into v.
func (r *Record) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(r.Payload, v)
}

// Stats reports queue counters.
type Stats struct {
	Pending      int64 `json:"pending"`
	TotalAppends int64 `json:"total_appends"`
	TotalCleared int64 `json:"total_cleared"`
	DBSizeBytes  int64 `json:"db_size_bytes"`
}

// BadgerQueue is the Badger-backed offline queue. It is safe for concurrent use.
type BadgerQueue struct {
	db     *badger.DB
	seq    *badger.Sequence
	config Config

	totalAppends atomic.Int64
	totalCleared atomic.Int64

	// mu serializes Append against Clear and guards closed.
	mu     sync.Mutex
	closed bool
}

// Open opens (or creates) the queue at cfg.Path.
func Open(cfg *Config) (*BadgerQueue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid queue config: %w", err)
	}
	q, err := open(cfg)
	if err != nil {
		return nil, err
	}
	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Bool("compression", cfg.Compression).
		Msg("Offline queue opened")
	return q, nil
}

// OpenForTesting skips validation so tests can use small tables and
// intervals. Do not use in production code.
func OpenForTesting(cfg *Config) (*BadgerQueue, error) {
	if cfg.NumCompactors < 2 {
		cfg.NumCompactors = 2
	}
	if cfg.CloseTimeout == 0 {
		cfg.CloseTimeout = 10 * time.Second
	}
	return open(cfg)
}

func open(cfg *Config) (*BadgerQueue, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.MemTableSize = cfg.MemTableSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumCompactors = cfg.NumCompactors
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open BadgerDB: %w", ErrStorageUnavailable, err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	seq, err := db.GetSequence([]byte(keySequence), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: lease sequence: %w", ErrStorageUnavailable, err)
	}

	return &BadgerQueue{db: db, seq: seq, config: *cfg}, nil
}

// ensureSchema writes the schema marker only when it is missing, so running
// it on every start never touches existing records.
func ensureSchema(db *badger.DB) error {
	err := db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(keySchemaVersion), []byte(schemaVersion))
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if string(val) != schemaVersion {
				logging.Warn().
					Str("found", string(val)).
					Str("expected", schemaVersion).
					Msg("Offline queue schema version differs, continuing with additive layout")
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("%w: initialize schema: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func recordKey(id uint64) []byte {
	key := make([]byte, len(prefixRecord)+8)
	copy(key, prefixRecord)
	binary.BigEndian.PutUint64(key[len(prefixRecord):], id)
	return key
}

// Append stores payload at the end of the queue. An empty idempotencyKey gets
// a fresh UUID. The record is durable when Append returns nil.
func (q *BadgerQueue) Append(ctx context.Context, idempotencyKey string, payload interface{}) (Record, error) {
	if payload == nil {
		return Record{}, ErrNilPayload
	}
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Record{}, fmt.Errorf("marshal payload: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return Record{}, ErrNilPayload
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return Record{}, ErrQueueClosed
	}

	next, err := q.seq.Next()
	if err != nil {
		metrics.QueueErrors.WithLabelValues("append").Inc()
		return Record{}, fmt.Errorf("%w: next sequence: %w", ErrStorageUnavailable, err)
	}

	rec := Record{
		ID:             next + 1,
		IdempotencyKey: idempotencyKey,
		Payload:        raw,
		CreatedAt:      time.Now().UTC(),
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return Record{}, fmt.Errorf("marshal record: %w", err)
	}

	err = q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.ID), data)
	})
	if err != nil {
		metrics.QueueErrors.WithLabelValues("append").Inc()
		return Record{}, fmt.Errorf("%w: write record: %w", ErrStorageUnavailable, err)
	}

	q.totalAppends.Add(1)
	metrics.QueueAppends.Inc()
	metrics.QueueDepth.Inc()
	return rec, nil
}

// ReadAll returns every record in insertion order from one consistent
// snapshot. It has no side effects.
func (q *BadgerQueue) ReadAll(ctx context.Context) ([]Record, error) {
	if q.isClosed() {
		return nil, ErrQueueClosed
	}

	var records []Record
	skipped := 0
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixRecord)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			var rec Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				// Left in place for "queue purge"; it is never sent.
				logging.Warn().Err(err).Str("key", fmt.Sprintf("%x", item.Key())).Msg("Skipping unreadable queue record")
				skipped++
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		metrics.QueueErrors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("%w: read records: %w", ErrStorageUnavailable, err)
	}

	if skipped > 0 {
		metrics.QueueErrors.WithLabelValues("decode").Add(float64(skipped))
	}
	metrics.QueueDepth.Set(float64(len(records) + skipped))
	return records, nil
}

// Clear removes exactly the given IDs. Unknown IDs are ignored. Records
// appended after the caller's ReadAll are never touched.
func (q *BadgerQueue) Clear(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	keys := make([][]byte, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	removed, err := q.deleteKeys(keys)
	q.recordCleared(removed)
	if err != nil {
		metrics.QueueErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("%w: clear records: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// deleteKeys deletes in a single transaction. A batch too large for one
// transaction is committed in pieces; any piece left behind after a failure
// is resent on the next cycle and deduplicated by its idempotency key. The
// count returned on error covers only the pieces already committed.
func (q *BadgerQueue) deleteKeys(keys [][]byte) (int, error) {
	committed, pending := 0, 0
	txn := q.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	for _, key := range keys {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			continue
		} else if err != nil {
			return committed, err
		}

		err := txn.Delete(key)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return committed, err
			}
			committed += pending
			pending = 0
			txn = q.db.NewTransaction(true)
			err = txn.Delete(key)
		}
		if err != nil {
			return committed, err
		}
		pending++
	}
	if err := txn.Commit(); err != nil {
		return committed, err
	}
	return committed + pending, nil
}

// ClearAll removes every record currently stored, including any that can
// no longer be decoded. Sync never uses it; it backs the "queue purge"
// command.
func (q *BadgerQueue) ClearAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, ErrQueueClosed
	}

	var keys [][]byte
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixRecord)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		metrics.QueueErrors.WithLabelValues("clear").Inc()
		return 0, fmt.Errorf("%w: list records: %w", ErrStorageUnavailable, err)
	}

	removed, err := q.deleteKeys(keys)
	q.recordCleared(removed)
	if err != nil {
		metrics.QueueErrors.WithLabelValues("clear").Inc()
		return removed, fmt.Errorf("%w: purge records: %w", ErrStorageUnavailable, err)
	}
	return removed, nil
}

func (q *BadgerQueue) recordCleared(n int) {
	if n == 0 {
		return
	}
	q.totalCleared.Add(int64(n))
	metrics.QueueCleared.Add(float64(n))
	metrics.QueueDepth.Sub(float64(n))
}

// Len counts stored records without decoding them.
func (q *BadgerQueue) Len(ctx context.Context) (int, error) {
	if q.isClosed() {
		return 0, ErrQueueClosed
	}
	n := 0
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixRecord)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count records: %w", ErrStorageUnavailable, err)
	}
	return n, nil
}

// Stats returns counters and the on-disk size.
func (q *BadgerQueue) Stats() Stats {
	if q.isClosed() {
		return Stats{}
	}
	pending, err := q.Len(context.Background())
	if err != nil {
		logging.Warn().Err(err).Msg("Offline queue stats failed to count records")
	}
	lsm, vlog := q.db.Size()
	return Stats{
		Pending:      int64(pending),
		TotalAppends: q.totalAppends.Load(),
		TotalCleared: q.totalCleared.Load(),
		DBSizeBytes:  lsm + vlog,
	}
}

// RunGC runs value log GC until Badger reports nothing left to rewrite.
func (q *BadgerQueue) RunGC() error {
	if q.isClosed() {
		return ErrQueueClosed
	}
	for {
		err := q.db.RunValueLogGC(q.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("value log GC: %w", err)
		}
	}
}

func (q *BadgerQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close releases the sequence and closes Badger, waiting at most
// CloseTimeout. Calling Close twice is a no-op.
func (q *BadgerQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	timeout := q.config.CloseTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	q.mu.Unlock()

	if err := q.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("Failed to release queue sequence")
	}

	done := make(chan error, 1)
	go func() {
		done <- q.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Offline queue closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("Offline queue close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
