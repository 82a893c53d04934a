// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pizzahunt/internal/interceptor"
	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/middleware"
	"github.com/tomtom215/pizzahunt/internal/models"
	"github.com/tomtom215/pizzahunt/internal/queue"
	"github.com/tomtom215/pizzahunt/internal/remote"
	syncpkg "github.com/tomtom215/pizzahunt/internal/sync"
	"github.com/tomtom215/pizzahunt/internal/validation"
)

// Agent API paths, shared with the CLI.
const (
	AgentPizzasPath       = "/agent/pizzas"
	AgentSyncPath         = "/agent/sync"
	AgentStatusPath       = "/agent/status"
	AgentQueuePath        = "/agent/queue"
	AgentConnectivityPath = "/agent/connectivity"
)

// PizzaCreator routes a create to the remote or the offline queue.
type PizzaCreator interface {
	CreatePizza(ctx context.Context, input models.PizzaInput) (interceptor.Outcome, error)
}

// SyncTrigger runs and reports queue replay.
type SyncTrigger interface {
	TriggerSync(ctx context.Context) (syncpkg.Result, error)
	Status() syncpkg.Status
}

// QueueInspector exposes the offline queue to the local API.
type QueueInspector interface {
	ReadAll(ctx context.Context) ([]queue.Record, error)
	ClearAll(ctx context.Context) (int, error)
	Stats() queue.Stats
}

// ConnectivityControl reads and overrides the connectivity signal.
type ConnectivityControl interface {
	Online() bool
	SetOnline(online bool)
}

// AgentStatus is the payload of GET /agent/status.
type AgentStatus struct {
	Online       bool           `json:"online"`
	Sync         syncpkg.Status `json:"sync"`
	Queue        queue.Stats    `json:"queue"`
	RemoteURL    string         `json:"remote_url"`
	BreakerState string         `json:"breaker_state,omitempty"`
	Version      string         `json:"version"`
}

// ConnectivityRequest is the body of POST /agent/connectivity.
type ConnectivityRequest struct {
	Online *bool `json:"online" validate:"required"`
}

// AgentHandler serves the client agent's local API.
type AgentHandler struct {
	creator   PizzaCreator
	sync      SyncTrigger
	queue     QueueInspector
	conn      ConnectivityControl
	remoteURL string

	// breakerState is optional; it reports the remote client's breaker.
	breakerState func() string
}

// NewAgentHandler creates the agent handler.
func NewAgentHandler(creator PizzaCreator, sync SyncTrigger, q QueueInspector, conn ConnectivityControl, remoteURL string) *AgentHandler {
	return &AgentHandler{
		creator:   creator,
		sync:      sync,
		queue:     q,
		conn:      conn,
		remoteURL: remoteURL,
	}
}

// WithBreakerState reports fn's value as the remote breaker state.
func (h *AgentHandler) WithBreakerState(fn func() string) *AgentHandler {
	h.breakerState = fn
	return h
}

// CreatePizza sends the pizza through the write interceptor. A created
// pizza answers 201, a queued one 202.
func (h *AgentHandler) CreatePizza(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var input models.PizzaInput
	if err := decodeJSON(r, &input); err != nil {
		respondDecodeError(w, err)
		return
	}

	outcome, err := h.creator.CreatePizza(r.Context(), input)
	if err != nil {
		respondAgentError(w, err)
		return
	}

	status := http.StatusCreated
	if outcome.Kind == interceptor.OutcomeQueued {
		status = http.StatusAccepted
	}
	respondData(w, status, outcome, start)
}

// TriggerSync runs one sync attempt and reports what it sent.
func (h *AgentHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	res, err := h.sync.TriggerSync(r.Context())
	if err != nil {
		respondAgentError(w, err)
		return
	}
	respondData(w, http.StatusOK, res, start)
}

// Status reports connectivity, sync and queue state.
func (h *AgentHandler) Status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	st := AgentStatus{
		Online:    h.conn.Online(),
		Sync:      h.sync.Status(),
		Queue:     h.queue.Stats(),
		RemoteURL: h.remoteURL,
		Version:   Version,
	}
	if h.breakerState != nil {
		st.BreakerState = h.breakerState()
	}
	respondData(w, http.StatusOK, st, start)
}

// ListQueue returns the pending records in insertion order.
func (h *AgentHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	records, err := h.queue.ReadAll(r.Context())
	if err != nil {
		respondAgentError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: models.StatusSuccess,
		Data:   records,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Count:       len(records),
		},
	})
}

// PurgeQueue drops every pending record without sending it.
func (h *AgentHandler) PurgeQueue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	n, err := h.queue.ClearAll(r.Context())
	if err != nil {
		respondAgentError(w, err)
		return
	}
	logging.Ctx(r.Context()).Warn().Int("records", n).Msg("Offline queue purged")
	respondData(w, http.StatusOK, map[string]int{"purged": n}, start)
}

// SetConnectivity overrides the connectivity signal until the next probe.
func (h *AgentHandler) SetConnectivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ConnectivityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	h.conn.SetOnline(*req.Online)
	respondData(w, http.StatusOK, map[string]bool{"online": h.conn.Online()}, start)
}

// respondAgentError maps interceptor, queue and sync failures.
func respondAgentError(w http.ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respondValidationError(w, verr)
	case errors.Is(err, syncpkg.ErrSyncInProgress):
		respondError(w, http.StatusConflict, "SYNC_IN_PROGRESS", err.Error(), nil)
	case errors.Is(err, queue.ErrStorageUnavailable):
		respondError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Offline queue is unavailable", err)
	case errors.Is(err, remote.ErrNotFound):
		respondError(w, http.StatusBadGateway, "REMOTE_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, remote.ErrRemoteRejected):
		respondError(w, http.StatusBadGateway, "REMOTE_REJECTED", err.Error(), nil)
	case errors.Is(err, remote.ErrTransportFailure):
		respondError(w, http.StatusGatewayTimeout, "REMOTE_UNREACHABLE", err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Agent operation failed", err)
	}
}

// SetupAgentChi builds the agent mux. It binds to loopback by default and
// carries no CORS or rate limiting.
func SetupAgentChi(h *AgentHandler, maxBodyBytes int64) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)

	r.Route("/agent", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		if maxBodyBytes > 0 {
			r.Use(middleware.MaxBodyBytes(maxBodyBytes))
		}

		r.Post("/pizzas", h.CreatePizza)
		r.Post("/sync", h.TriggerSync)
		r.Get("/status", h.Status)
		r.Get("/queue", h.ListQueue)
		r.Delete("/queue", h.PurgeQueue)
		r.Post("/connectivity", h.SetConnectivity)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
