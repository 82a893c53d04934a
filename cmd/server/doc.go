// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package main is the Pizza Hunt server: the remote write endpoint that client
agents replay their offline queues against, plus the read API.

# Application Architecture

	RootSupervisor ("pizzahunt")
	├── storage-layer
	├── messaging-layer
	│   ├── WebSocket hub (/ws live feed)
	│   └── event consumer (bus -> hub)
	└── api-layer
	    └── HTTP server (chi router)

Startup order:

 1. Configuration: Koanf v2 (defaults, optional YAML, environment)
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Database: DuckDB document store, migrations applied on open
 4. Event bus: Watermill over a Go channel, or NATS JetStream when NATS_ENABLED
 5. Supervisor tree with the services above

# Configuration

Common environment variables:

	HTTP_PORT            listen port (default 3001)
	DUCKDB_PATH          database file (default ./data/pizzahunt.duckdb)
	NATS_ENABLED         publish events over NATS JetStream
	NATS_EMBEDDED        start an in-process NATS server
	CORS_ORIGINS         comma separated allowed origins
	DISABLE_RATE_LIMIT   turn off httprate on /api
	LOG_LEVEL, LOG_FORMAT

# Signal Handling

SIGINT and SIGTERM cancel the tree. The HTTP server drains in-flight
requests for up to 10s, then the event bus and the database are closed.

# Example Usage

	HTTP_PORT=3001 LOG_FORMAT=console ./pizzahunt-server

	docker run -d -p 3001:3001 -v pizzahunt:/data \
	  -e DUCKDB_PATH=/data/pizzahunt.duckdb ghcr.io/tomtom215/pizzahunt
*/
package main
