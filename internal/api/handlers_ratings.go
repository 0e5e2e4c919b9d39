// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package api

import (
	"net/http"

	"github.com/tomtom215/couchside/internal/eventprocessor"
	"github.com/tomtom215/couchside/internal/logging"
)

// RatingCreated is returned by CreateRating.
type RatingCreated struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id"`
	ItemID   string `json:"item_id"`
	Verdict  string `json:"verdict"`
}

// CreateRating handles POST /api/v1/ratings. The rating is appended to the
// person's history and rating.written is published for the household.
func (h *Handler) CreateRating(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RatingRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	ev, err := req.ToEvent()
	if err != nil {
		respondError(rw, err)
		return
	}

	person, err := h.store.GetPerson(r.Context(), req.PersonID)
	if err != nil {
		respondError(rw, err)
		return
	}
	ctx := logging.ContextWithHouseholdID(r.Context(), person.HouseholdID)

	id, err := h.store.InsertRating(ctx, ev)
	if err != nil {
		respondError(rw, err)
		return
	}
	h.notifyWrite(ctx, eventprocessor.NewRatingWritten(person.HouseholdID, person.ID, ev.ItemID))

	logging.Ctx(ctx).Info().
		Str("person_id", person.ID).
		Str("item_id", ev.ItemID).
		Str("verdict", ev.Verdict.String()).
		Msg("Rating recorded")

	rw.Created(RatingCreated{
		ID:       id,
		PersonID: person.ID,
		ItemID:   ev.ItemID,
		Verdict:  ev.Verdict.String(),
	})
}
