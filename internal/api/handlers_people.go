// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/couchside/internal/eventprocessor"
	"github.com/tomtom215/couchside/internal/logging"
	"github.com/tomtom215/couchside/internal/recommend"
)

// PreferenceCreated is returned by Onboarding.
type PreferenceCreated struct {
	ID      string                       `json:"id"`
	Profile *recommend.PreferenceProfile `json:"profile"`
}

// HouseholdPeople handles GET /api/v1/households/{householdID}/people.
func (h *Handler) HouseholdPeople(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	people, err := h.store.PeopleInHousehold(r.Context(), chi.URLParam(r, "householdID"))
	if err != nil {
		respondError(rw, err)
		return
	}
	rw.Success(people)
}

// Onboarding handles POST /api/v1/people/{personID}/onboarding. Each call
// appends a new preference profile; the latest one is used for ranking.
func (h *Handler) Onboarding(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req OnboardingRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	person, err := h.store.GetPerson(r.Context(), chi.URLParam(r, "personID"))
	if err != nil {
		respondError(rw, err)
		return
	}
	ctx := logging.ContextWithHouseholdID(r.Context(), person.HouseholdID)

	profile := req.ToProfile(person.ID)
	id, err := h.store.InsertPreference(ctx, profile)
	if err != nil {
		respondError(rw, err)
		return
	}
	h.notifyWrite(ctx, eventprocessor.NewPreferenceWritten(person.HouseholdID, person.ID))

	logging.Ctx(ctx).Info().Str("person_id", person.ID).Msg("Preference profile recorded")
	rw.Created(PreferenceCreated{ID: id, Profile: profile})
}

// UpdateBoundaries handles PUT /api/v1/people/{personID}/boundaries. The
// request replaces both the age limit and the boundary map.
func (h *Handler) UpdateBoundaries(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BoundariesRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	person, err := h.store.GetPerson(r.Context(), chi.URLParam(r, "personID"))
	if err != nil {
		respondError(rw, err)
		return
	}
	ctx := logging.ContextWithHouseholdID(r.Context(), person.HouseholdID)

	if err := h.store.UpdateBoundaries(ctx, person.ID, req.AgeLimit, req.Boundaries); err != nil {
		respondError(rw, err)
		return
	}
	h.notifyWrite(ctx, eventprocessor.NewPreferenceWritten(person.HouseholdID, person.ID))

	person.AgeLimit = req.AgeLimit
	person.Boundaries = req.Boundaries
	logging.Ctx(ctx).Info().Str("person_id", person.ID).Int("boundaries", len(req.Boundaries)).Msg("Boundaries updated")
	rw.Success(person)
}

// RecordHistory handles POST /api/v1/people/{personID}/history for titles
// watched outside the catalog. History feeds adjacency but not vectors, so
// the household cache is invalidated directly instead of through an event.
func (h *Handler) RecordHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req HistoryRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	person, err := h.store.GetPerson(r.Context(), chi.URLParam(r, "personID"))
	if err != nil {
		respondError(rw, err)
		return
	}
	ctx := logging.ContextWithHouseholdID(r.Context(), person.HouseholdID)

	seenAt := time.Now().UTC()
	if req.SeenAt != nil {
		seenAt = req.SeenAt.UTC()
	}
	if err := h.store.InsertHistory(ctx, person.ID, req.Title, seenAt); err != nil {
		respondError(rw, err)
		return
	}
	h.invalidate(ctx, person.HouseholdID)

	rw.Created(recommend.HistoryEntry{PersonID: person.ID, Title: req.Title, SeenAt: seenAt})
}
