// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package config

import (
	"fmt"
	"time"
)

// Config holds the configuration of both binaries. The server reads Server,
// Database, NATS and Security; the client agent reads Queue, Remote,
// Connectivity, Sync and Agent. Logging is shared.
//
// Loading order (Koanf v2):
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH, then DefaultConfigPaths)
//  3. Environment variables listed in envTransformFunc
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	db, err := database.New(&cfg.Database)
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	NATS         NATSConfig         `koanf:"nats"`
	Security     SecurityConfig     `koanf:"security"`
	Queue        QueueConfig        `koanf:"queue"`
	Remote       RemoteConfig       `koanf:"remote"`
	Connectivity ConnectivityConfig `koanf:"connectivity"`
	Sync         SyncConfig         `koanf:"sync"`
	Agent        AgentConfig        `koanf:"agent"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging" or "production"
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds DuckDB settings for the document store
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // DuckDB default is true
	SkipIndexes            bool   `koanf:"skip_indexes"`             // for fast test setup
}

// NATSConfig controls the domain event bus. When Enabled is false events
// travel over an in-process Go channel.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// SecurityConfig holds rate limiting and CORS settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes"`
}

// QueueConfig locates the client's offline queue.
type QueueConfig struct {
	Path         string        `koanf:"path"`
	SyncWrites   bool          `koanf:"sync_writes"`
	GCInterval   time.Duration `koanf:"gc_interval"`
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// RemoteConfig points the client at the pizza server
type RemoteConfig struct {
	URL               string        `koanf:"url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	UserAgent         string        `koanf:"user_agent"`
}

// ConnectivityConfig controls reachability polling
type ConnectivityConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
	ProbeTimeout time.Duration `koanf:"probe_timeout"`
}

// SyncConfig controls queue replay.
type SyncConfig struct {
	// AttemptTimeout bounds one batch submission; expiry counts as failure.
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`

	// RetryInterval re-attempts while online after a failure. 0 disables
	// retries; the next online transition or manual trigger is then needed.
	RetryInterval time.Duration `koanf:"retry_interval"`
}

// AgentConfig is the local API of the client agent.
type AgentConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns host:port for net/http.
func (a AgentConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// URL returns the base URL CLI commands use to reach a running agent.
func (a AgentConfig) URL() string {
	host := a.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, a.Port)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
