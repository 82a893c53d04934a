// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

// Package events carries document store changes from API handlers to live
// consumers such as the WebSocket hub.
//
// The bus is built on Watermill. With NATS disabled it uses an in-process
// gochannel pub/sub; with NATS_ENABLED=true it uses watermill-nats over
// JetStream, and NATS_EMBEDDED=true starts a nats-server inside the process.
// Publishing goes through a circuit breaker and never blocks a write: the
// store is the source of truth and events are notifications only.
package events
