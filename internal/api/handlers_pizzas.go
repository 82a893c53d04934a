// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pizzahunt/internal/database"
	"github.com/tomtom215/pizzahunt/internal/events"
	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/models"
	"github.com/tomtom215/pizzahunt/internal/remote"
	"github.com/tomtom215/pizzahunt/internal/validation"
)

// ListPizzas returns every pizza, newest first, with comments populated.
//
// @Summary List pizzas
// @Tags Pizzas
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Pizza}
// @Router /pizzas [get]
func (h *Handler) ListPizzas(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	pizzas, err := h.db.ListPizzas(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: models.StatusSuccess,
		Data:   pizzas,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Count:       len(pizzas),
		},
	})
}

// CreatePizza stores one pizza from a JSON object, or a batch from a JSON
// array. A batch is all-or-nothing and its data is an array in input order.
//
// For a single object the Idempotency-Key header is used when the body has
// no idempotencyKey of its own. Replaying a key returns the pizza stored
// the first time with 200 and publishes no event.
//
// @Summary Create one pizza or a batch
// @Tags Pizzas
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client key for replay detection"
// @Success 201 {object} models.APIResponse{data=models.Pizza}
// @Success 200 {object} models.APIResponse{data=models.Pizza} "Replayed idempotency key"
// @Failure 400 {object} models.APIResponse
// @Failure 413 {object} models.APIResponse
// @Router /pizzas [post]
func (h *Handler) CreatePizza(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := readBody(r)
	if err != nil {
		respondDecodeError(w, err)
		return
	}

	if isJSONArray(body) {
		h.createBatch(w, r, body, start)
		return
	}

	var input models.PizzaInput
	if err := json.Unmarshal(body, &input); err != nil {
		respondDecodeError(w, err)
		return
	}
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = strings.TrimSpace(r.Header.Get(remote.IdempotencyHeader))
	}
	if verr := validation.ValidateStruct(&input); verr != nil {
		respondValidationError(w, verr)
		return
	}

	res, err := h.db.StorePizzas(r.Context(), []models.PizzaInput{input})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.publishCreated(r.Context(), res)
	respondData(w, createdStatus(res), res.Pizzas[0], start)
}

func (h *Handler) createBatch(w http.ResponseWriter, r *http.Request, body []byte, start time.Time) {
	var inputs []models.PizzaInput
	if err := json.Unmarshal(body, &inputs); err != nil {
		respondDecodeError(w, err)
		return
	}

	for i := range inputs {
		if verr := validation.ValidateStruct(&inputs[i]); verr != nil {
			apiErr := verr.ToAPIError()
			msg := fmt.Sprintf("pizza %d: %s", i, apiErr.Message)
			respondJSON(w, http.StatusBadRequest, &models.APIResponse{
				Status:   models.StatusError,
				Message:  msg,
				Metadata: models.Metadata{Timestamp: time.Now()},
				Error: &models.APIError{
					Code:    apiErr.Code,
					Message: msg,
					Details: map[string]interface{}{"index": i, "fields": apiErr.Details["fields"]},
				},
			})
			return
		}
	}

	res, err := h.db.StorePizzas(r.Context(), inputs)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("count", len(res.Pizzas)).
		Int("inserted", res.InsertedCount()).
		Msg("Stored pizza batch")
	h.publishCreated(r.Context(), res)
	respondData(w, createdStatus(res), res.Pizzas, start)
}

// publishCreated announces only the pizzas this request inserted.
func (h *Handler) publishCreated(ctx context.Context, res database.StoreResult) {
	for i := range res.Pizzas {
		if res.Inserted[i] {
			h.publish(ctx, events.NewPizzaEvent(events.PizzaCreated, res.Pizzas[i]))
		}
	}
}

// createdStatus is 200 when every entry was a replay, 201 otherwise.
func createdStatus(res database.StoreResult) int {
	if len(res.Pizzas) > 0 && res.InsertedCount() == 0 {
		return http.StatusOK
	}
	return http.StatusCreated
}

// GetPizza returns one pizza with its comments populated.
//
// @Summary Get a pizza
// @Tags Pizzas
// @Produce json
// @Param id path string true "Pizza ID"
// @Success 200 {object} models.APIResponse{data=models.Pizza}
// @Failure 404 {object} models.APIResponse
// @Router /pizzas/{id} [get]
func (h *Handler) GetPizza(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	pizza, err := h.db.GetPizza(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, pizza, start)
}

// UpdatePizza changes the fields present in the body.
func (h *Handler) UpdatePizza(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var upd models.PizzaUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondDecodeError(w, err)
		return
	}
	if verr := validation.ValidateStruct(&upd); verr != nil {
		respondValidationError(w, verr)
		return
	}

	pizza, err := h.db.UpdatePizza(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.publish(r.Context(), events.NewPizzaEvent(events.PizzaUpdated, pizza))
	respondData(w, http.StatusOK, pizza, start)
}

// DeletePizza removes a pizza with its comments and returns what was removed.
func (h *Handler) DeletePizza(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	pizza, err := h.db.DeletePizza(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.publish(r.Context(), events.NewPizzaEvent(events.PizzaDeleted, pizza))
	respondData(w, http.StatusOK, pizza, start)
}
