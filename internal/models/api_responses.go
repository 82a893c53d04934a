// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Error responses repeat the error message at the top level in Message so
// that clients which only look for a "message" field still detect failure:
//
//	{
//	  "status": "error",
//	  "message": "No pizza found with this id!",
//	  "error": {"code": "NOT_FOUND", "message": "No pizza found with this id!"},
//	  "metadata": {"timestamp": "2026-10-18T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Message  string      `json:"message,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       int       `json:"count,omitempty"`
}

// APIError is the structured error body.
//
// Codes in use: VALIDATION_ERROR, NOT_FOUND, DATABASE_ERROR, INVALID_JSON,
// RATE_LIMIT_EXCEEDED, SERVICE_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Uptime        float64           `json:"uptime_seconds"`
	Components    map[string]string `json:"components,omitempty"`
	DatabaseReady bool              `json:"database_ready"`
}
