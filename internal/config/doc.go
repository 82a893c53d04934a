// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package config loads configuration for the pizza server and the client agent.

Values are layered with Koanf v2: struct defaults, then an optional YAML file,
then environment variables. Only the variables listed below are read.

Server:
  - HTTP_HOST, HTTP_PORT (default 3001), HTTP_TIMEOUT, ENVIRONMENT
  - DUCKDB_PATH (default ./data/pizzahunt.duckdb), DUCKDB_MAX_MEMORY, DUCKDB_THREADS
  - NATS_ENABLED, NATS_URL, NATS_EMBEDDED, NATS_STORE_DIR, NATS_MAX_MEMORY, NATS_MAX_STORE
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT, CORS_ORIGINS, TRUSTED_PROXIES

Client agent:
  - QUEUE_PATH (default ./data/queue), QUEUE_SYNC_WRITES, QUEUE_GC_INTERVAL
  - REMOTE_URL (default http://localhost:3001), REMOTE_TIMEOUT, REMOTE_RPS, REMOTE_BURST
  - CONNECTIVITY_POLL_INTERVAL, CONNECTIVITY_PROBE_TIMEOUT
  - SYNC_ATTEMPT_TIMEOUT (default 30s), SYNC_RETRY_INTERVAL (default 0, disabled)
  - AGENT_HOST, AGENT_PORT (default 3002)

Both:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - CONFIG_PATH to pick the YAML file

Comma-separated values are accepted for CORS_ORIGINS and TRUSTED_PROXIES.

Example config.yaml:

	server:
	  port: 3001
	remote:
	  url: https://pizza.example.com
	sync:
	  retry_interval: 1m
*/
package config
