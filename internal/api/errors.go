// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/couchside/internal/database"
	"github.com/tomtom215/couchside/internal/recommend"
)

// ErrPersonNotInHousehold is returned when for= names a person of another household.
var ErrPersonNotInHousehold = errors.New("person is not a member of this household")

// respondError maps store and engine errors onto the response envelope.
func respondError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, ErrPersonNotInHousehold):
		rw.NotFound(err.Error())
	case errors.Is(err, database.ErrInvalidInput),
		errors.Is(err, recommend.ErrInvalidVerdict),
		errors.Is(err, recommend.ErrUnknownIntent):
		rw.BadRequest(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusServiceUnavailable, ErrCodeRankTimeout, "Ranking data could not be loaded in time")
	default:
		rw.DatabaseError(err)
	}
}
