// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package database

import (
	"errors"
	"io"

	"github.com/tomtom215/couchside/internal/logging"
)

// Sentinel errors returned by lookups and writes.
var (
	// ErrNotFound is returned when a person, household or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for writes that fail basic checks.
	ErrInvalidInput = errors.New("invalid input")
)

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in error paths where the Close error is not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
