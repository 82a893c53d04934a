// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

// Package interceptor routes a pizza create to the remote endpoint when the
// connectivity signal is online and into the offline queue when it is not.
//
// Only the connectivity signal decides. A remote failure while online is
// returned to the caller and is not queued.
package interceptor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/models"
	"github.com/tomtom215/pizzahunt/internal/queue"
	"github.com/tomtom215/pizzahunt/internal/validation"
)

// Connectivity is the binary reachability signal.
type Connectivity interface {
	Online() bool
}

// Creator performs a single remote create.
type Creator interface {
	CreateOne(ctx context.Context, input models.PizzaInput) (models.Pizza, error)
}

// Queue stores creates made while offline.
type Queue interface {
	Append(ctx context.Context, idempotencyKey string, payload interface{}) (queue.Record, error)
}

// OutcomeKind tells the caller where the write went.
type OutcomeKind int

const (
	// OutcomeCreated means the remote created the pizza.
	OutcomeCreated OutcomeKind = iota + 1

	// OutcomeQueued means the pizza is durable locally and will be synced.
	OutcomeQueued
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind as its string form in JSON.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome of CreatePizza. Pizza is set for OutcomeCreated; LocalID for
// OutcomeQueued. A queued outcome never carries a remote identifier.
type Outcome struct {
	Kind           OutcomeKind   `json:"outcome"`
	Pizza          *models.Pizza `json:"pizza,omitempty"`
	LocalID        uint64        `json:"localId,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey"`
}

// Interceptor is the single entry point for pizza creates on the client.
type Interceptor struct {
	conn   Connectivity
	remote Creator
	queue  Queue
}

// New creates an interceptor.
func New(conn Connectivity, remote Creator, q Queue) *Interceptor {
	return &Interceptor{conn: conn, remote: remote, queue: q}
}

// CreatePizza validates the input and either creates it remotely or queues
// it. Validation failures return *validation.RequestValidationError; queue
// failures match queue.ErrStorageUnavailable; remote failures match the
// remote package sentinels.
func (i *Interceptor) CreatePizza(ctx context.Context, input models.PizzaInput) (Outcome, error) {
	input.Normalize()
	if verr := validation.ValidateStruct(&input); verr != nil {
		return Outcome{}, verr
	}
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = uuid.NewString()
	}

	log := logging.Ctx(ctx).With().
		Str("pizza_name", input.PizzaName).
		Str("idempotency_key", input.IdempotencyKey).
		Logger()

	if i.conn.Online() {
		pizza, err := i.remote.CreateOne(ctx, input)
		if err != nil {
			log.Warn().Err(err).Msg("Direct pizza create failed")
			return Outcome{}, fmt.Errorf("create pizza: %w", err)
		}
		log.Info().Str("pizza_id", pizza.ID).Msg("Pizza created on remote")
		return Outcome{Kind: OutcomeCreated, Pizza: &pizza, IdempotencyKey: input.IdempotencyKey}, nil
	}

	rec, err := i.queue.Append(ctx, input.IdempotencyKey, input)
	if err != nil {
		log.Error().Err(err).Msg("Offline pizza could not be stored")
		return Outcome{}, fmt.Errorf("queue pizza: %w", err)
	}
	log.Info().Uint64("local_id", rec.ID).Msg("Offline, pizza queued for sync")
	return Outcome{Kind: OutcomeQueued, LocalID: rec.ID, IdempotencyKey: input.IdempotencyKey}, nil
}
