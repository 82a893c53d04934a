// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package database

import (
	"errors"
	"io"

	"github.com/tomtom215/pizzahunt/internal/logging"
)

// Lookup failures. Handlers map both to 404.
var (
	ErrPizzaNotFound   = errors.New("No pizza found with this id!") //nolint:staticcheck // user-facing message
	ErrCommentNotFound = errors.New("No comment with this id!")     //nolint:staticcheck // user-facing message
)

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
