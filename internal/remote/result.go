// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package remote

import (
	"errors"

	"github.com/tomtom215/pizzahunt/internal/models"
)

var errUnknownFailure = errors.New("remote submission failed")

// Result is the outcome of a batch submission: either Ok with the created
// pizzas or Err with a reason. The zero value is Ok with no pizzas.
type Result struct {
	pizzas []models.Pizza
	err    error
}

// Ok builds a successful result.
func Ok(pizzas []models.Pizza) Result {
	return Result{pizzas: pizzas}
}

// Err builds a failed result. A nil reason is still a failure.
func Err(reason error) Result {
	if reason == nil {
		reason = errUnknownFailure
	}
	return Result{err: reason}
}

// IsOk reports whether the remote accepted the batch.
func (r Result) IsOk() bool { return r.err == nil }

// Pizzas returns the created entities of an Ok result.
func (r Result) Pizzas() []models.Pizza { return r.pizzas }

// Err returns the failure reason, or nil for Ok.
func (r Result) Err() error { return r.err }
