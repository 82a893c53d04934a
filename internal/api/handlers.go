// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package api

import (
	"context"
	"time"

	"github.com/tomtom215/pizzahunt/internal/config"
	"github.com/tomtom215/pizzahunt/internal/database"
	"github.com/tomtom215/pizzahunt/internal/events"
	"github.com/tomtom215/pizzahunt/internal/logging"
	ws "github.com/tomtom215/pizzahunt/internal/websocket"
)

// EventPublisher receives a domain event after every successful write.
// *events.Bus satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Handler serves the pizza, comment and health endpoints.
type Handler struct {
	db        *database.DB
	config    *config.Config
	publisher EventPublisher
	wsHub     *ws.Hub
	startTime time.Time
}

// NewHandler creates a new API handler.
//
// Dependencies:
//   - db: document store for pizzas, comments and replies
//   - cfg: application configuration
//   - publisher: event sink for write notifications (optional)
//   - wsHub: live feed hub for /ws (optional)
func NewHandler(db *database.DB, cfg *config.Config, publisher EventPublisher, wsHub *ws.Hub) *Handler {
	return &Handler{
		db:        db,
		config:    cfg,
		publisher: publisher,
		wsHub:     wsHub,
		startTime: time.Now(),
	}
}

// publish sends e to the event bus. A failed publish never fails the
// request that produced the write.
func (h *Handler) publish(ctx context.Context, e events.Event) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, e); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("event_type", string(e.Type)).
			Str("pizza_id", e.PizzaID).
			Msg("Failed to publish event")
	}
}
