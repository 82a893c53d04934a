// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package middleware provides chi-compatible HTTP middleware shared by the
pizza server and the client agent's local API.

  - RequestID: reuses or generates X-Request-ID and puts it in the context
  - PrometheusMetrics: api_requests_total and latency per route pattern
  - AccessLog: one zerolog line per request
  - MaxBodyBytes: request body cap

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(cfg.Security.MaxBodyBytes))
*/
package middleware
