// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package queue

import (
	"time"
)

// Config controls the on-device offline queue.
//
// Environment Variables (mapped by internal/config):
//   - QUEUE_PATH: Directory for the Badger files (default: ~/.pizzahunt/queue)
//   - QUEUE_SYNC_WRITES: fsync every append (default: true)
//   - QUEUE_COMPRESSION: Snappy compression for records (default: true)
//   - QUEUE_GC_INTERVAL: Value log GC interval (default: 10m)
//   - QUEUE_CLOSE_TIMEOUT: Max wait for a clean close (default: 10s)
type Config struct {
	// Path is the directory where Badger stores its files.
	Path string

	// SyncWrites forces fsync after every append. A queued write is only
	// reported to the caller once it is on disk, so this should stay on.
	SyncWrites bool

	// MemTableSize is the size of each memtable in bytes.
	MemTableSize int64

	// ValueLogFileSize is the size of each value log file in bytes.
	ValueLogFileSize int64

	// NumCompactors is the number of Badger compaction workers.
	NumCompactors int

	// Compression enables Snappy compression.
	Compression bool

	// GCInterval is the time between value log GC runs.
	GCInterval time.Duration

	// GCRatio is the discard ratio passed to RunValueLogGC.
	GCRatio float64

	// CloseTimeout bounds Close.
	CloseTimeout time.Duration
}

// DefaultConfig returns defaults sized for a single client device.
func DefaultConfig() Config {
	return Config{
		Path:             "./data/queue",
		SyncWrites:       true,
		MemTableSize:     8 * 1024 * 1024,
		ValueLogFileSize: 32 * 1024 * 1024,
		NumCompactors:    2,
		Compression:      true,
		GCInterval:       10 * time.Minute,
		GCRatio:          0.5,
		CloseTimeout:     10 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Path == "" {
		return &ConfigError{Field: "Path", Message: "queue path is required"}
	}
	if c.MemTableSize < 1024*1024 {
		return &ConfigError{Field: "MemTableSize", Message: "must be at least 1MB"}
	}
	if c.ValueLogFileSize < 1024*1024 {
		return &ConfigError{Field: "ValueLogFileSize", Message: "must be at least 1MB"}
	}
	if c.NumCompactors < 2 {
		return &ConfigError{Field: "NumCompactors", Message: "must be at least 2 (BadgerDB requirement)"}
	}
	if c.GCInterval < time.Minute {
		return &ConfigError{Field: "GCInterval", Message: "must be at least 1 minute"}
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return &ConfigError{Field: "GCRatio", Message: "must be between 0 and 1 (exclusive)"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "queue config error: " + e.Field + ": " + e.Message
}
