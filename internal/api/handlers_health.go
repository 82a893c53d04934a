// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/pizzahunt/internal/models"
	ws "github.com/tomtom215/pizzahunt/internal/websocket"
)

// HealthLive handles liveness probes. It also serves as the reachability
// probe target of the client agent, so it never touches the database.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: models.StatusSuccess,
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady returns 200 only when the document store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	health := models.HealthStatus{
		Status:        "ready",
		Version:       Version,
		Uptime:        time.Since(h.startTime).Seconds(),
		DatabaseReady: dbConnected,
		Components:    map[string]string{"database": "ok"},
	}
	data := map[string]interface{}{"health": &health}

	statusCode := http.StatusOK
	status := models.StatusSuccess
	if !dbConnected {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
		health.Status = status
		health.Components["database"] = "unavailable"
	} else if counts, err := h.db.GetRecordCounts(r.Context()); err == nil {
		data["records"] = counts
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status:   status,
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// WebSocket upgrades the request and joins it to the live feed.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Live feed is not available", nil)
		return
	}
	upgrader := ws.Upgrader(h.config.Security.CORSOrigins)
	ws.ServeWS(h.wsHub, &upgrader, w, r)
}
