// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that the configuration is usable by either binary.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateNATS,
		c.validateSecurity,
		c.validateQueue,
		c.validateRemote,
		c.validateConnectivity,
		c.validateSync,
		c.validateAgent,
		c.validateLogging,
	}

	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

func validatePort(port int, name string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535", name)
	}
	return nil
}

func (c *Config) validateServer() error {
	if err := validatePort(c.Server.Port, "HTTP_PORT"); err != nil {
		return err
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging, or production, got: %s", c.Server.Environment)
	}
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

// NATS limit constants
const (
	natsMinMemory = 64 * 1024 * 1024  // 64MB
	natsMinStore  = 100 * 1024 * 1024 // 100MB
)

// validateNATS validates NATS configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.EmbeddedServer {
		if c.NATS.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
		}
		if c.NATS.MaxMemory < natsMinMemory {
			return fmt.Errorf("NATS_MAX_MEMORY must be at least 64MB (67108864 bytes)")
		}
		if c.NATS.MaxStore < natsMinStore {
			return fmt.Errorf("NATS_MAX_STORE must be at least 100MB (104857600 bytes)")
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	if c.Security.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			if c.Server.Environment == "production" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
			continue
		}
		if err := validateHTTPURL(origin, "CORS_ORIGINS"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.Path == "" {
		return fmt.Errorf("QUEUE_PATH is required")
	}
	if c.Queue.GCInterval < time.Minute {
		return fmt.Errorf("QUEUE_GC_INTERVAL must be at least 1m")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if c.Remote.URL == "" {
		return fmt.Errorf("REMOTE_URL is required")
	}
	if err := validateHTTPURL(c.Remote.URL, "REMOTE_URL"); err != nil {
		return fmt.Errorf("REMOTE_URL is invalid: %w", err)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT must be positive")
	}
	if c.Remote.RequestsPerSecond < 0 {
		return fmt.Errorf("REMOTE_RPS must not be negative")
	}
	return nil
}

func (c *Config) validateConnectivity() error {
	if c.Connectivity.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("CONNECTIVITY_POLL_INTERVAL must be at least 100ms")
	}
	if c.Connectivity.ProbeTimeout <= 0 {
		return fmt.Errorf("CONNECTIVITY_PROBE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.AttemptTimeout < 0 {
		return fmt.Errorf("SYNC_ATTEMPT_TIMEOUT must not be negative")
	}
	if c.Sync.RetryInterval != 0 && c.Sync.RetryInterval < time.Second {
		return fmt.Errorf("SYNC_RETRY_INTERVAL must be 0 or at least 1s")
	}
	return nil
}

func (c *Config) validateAgent() error {
	return validatePort(c.Agent.Port, "AGENT_PORT")
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
