// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pizzahunt/config.yaml",
	"/etc/pizzahunt/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all defaults applied.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3001,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:                   "./data/pizzahunt.duckdb",
			MaxMemory:              "512MB",
			Threads:                0,
			PreserveInsertionOrder: true,
		},
		NATS: NATSConfig{
			Enabled:        false, // in-process event bus unless NATS is requested
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			StoreDir:       "./data/nats",
			MaxMemory:      256 << 20,
			MaxStore:       1 << 30,
			CloseTimeout:   10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
			MaxBodyBytes:      1 << 20,
		},
		Queue: QueueConfig{
			Path:         "./data/queue",
			SyncWrites:   true,
			GCInterval:   10 * time.Minute,
			CloseTimeout: 10 * time.Second,
		},
		Remote: RemoteConfig{
			URL:               "http://localhost:3001",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
			UserAgent:         "pizzahunt-agent/1.0",
		},
		Connectivity: ConnectivityConfig{
			PollInterval: 5 * time.Second,
			ProbeTimeout: 3 * time.Second,
		},
		Sync: SyncConfig{
			AttemptTimeout: 30 * time.Second,
			RetryInterval:  0,
		},
		Agent: AgentConfig{
			Host: "127.0.0.1",
			Port: 3002,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration with layered sources:
//  1. Defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any mapped setting
//
// Precedence is ENV > File > Defaults. The result is validated.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		switch val.(type) {
		case []interface{}, []string:
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// NATS
	"nats_enabled":       "nats.enabled",
	"nats_url":           "nats.url",
	"nats_embedded":      "nats.embedded_server",
	"nats_store_dir":     "nats.store_dir",
	"nats_max_memory":    "nats.max_memory",
	"nats_max_store":     "nats.max_store",
	"nats_close_timeout": "nats.close_timeout",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"trusted_proxies":     "security.trusted_proxies",
	"max_body_bytes":      "security.max_body_bytes",

	// Offline queue
	"queue_path":          "queue.path",
	"queue_sync_writes":   "queue.sync_writes",
	"queue_gc_interval":   "queue.gc_interval",
	"queue_close_timeout": "queue.close_timeout",

	// Remote endpoint
	"remote_url":        "remote.url",
	"remote_timeout":    "remote.timeout",
	"remote_rps":        "remote.requests_per_second",
	"remote_burst":      "remote.burst",
	"remote_user_agent": "remote.user_agent",

	// Connectivity
	"connectivity_poll_interval": "connectivity.poll_interval",
	"connectivity_probe_timeout": "connectivity.probe_timeout",

	// Sync
	"sync_attempt_timeout": "sync.attempt_timeout",
	"sync_retry_interval":  "sync.retry_interval",

	// Agent
	"agent_host": "agent.host",
	"agent_port": "agent.port",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - QUEUE_PATH -> queue.path
//   - REMOTE_URL -> remote.url
//
// Unmapped variables return "" and are skipped so unrelated environment
// variables cannot pollute the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
