// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/couchside/internal/cache"
	"github.com/tomtom215/couchside/internal/logging"
	"github.com/tomtom215/couchside/internal/metrics"
	"github.com/tomtom215/couchside/internal/recommend"
	"github.com/tomtom215/couchside/internal/validation"
)

// ExplainEnvelope is returned for explain=true on shared slates.
type ExplainEnvelope struct {
	Items  []recommend.RankedItem `json:"items"`
	Family *recommend.FamilyMeta  `json:"family"`
}

// Recommendations handles GET /api/v1/households/{householdID}/recommendations.
//
// Query parameters:
//   - for: a person ID of the household, or "household" (default) for a shared slate
//   - intent: default, short_tonight, weekend_binge, comfort or surprise
//   - count: slate size, 1 to the configured maximum
//   - like_id: anchor item the slate should lean toward
//   - seed: tie-break seed
//   - explain: wrap shared slates in {items, family}
//
// Slates at the default size without explain are served through the result
// cache; everything else is ranked fresh.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	householdID := chi.URLParam(r, "householdID")
	ctx := logging.ContextWithHouseholdID(r.Context(), householdID)

	q, verr := parseRecommendationQuery(r)
	if verr == nil && q.Count > h.config.MaxCount {
		verr = &validation.RequestValidationError{Fields: []validation.FieldError{{
			Field:   "count",
			Tag:     "lte",
			Param:   strconv.Itoa(h.config.MaxCount),
			Value:   q.Count,
			Message: fmt.Sprintf("count must be at most %d", h.config.MaxCount),
		}}}
	}
	if verr != nil {
		rw.ValidationError("Invalid query parameters", verr.Fields)
		return
	}
	intent, err := recommend.ParseIntent(q.Intent)
	if err != nil {
		respondError(rw, err)
		return
	}

	people, err := h.resolvePeople(ctx, householdID, q.For)
	if err != nil {
		respondError(rw, err)
		return
	}

	req := recommend.Request{
		People:   people,
		Intent:   intent,
		Count:    q.Count,
		AnchorID: q.LikeID,
		Seed:     q.Seed,
	}

	if !h.cacheable(q) {
		payload, err := h.rankPayload(ctx, req, q.Explain && len(people) > 1)
		if err != nil {
			respondError(rw, err)
			return
		}
		rw.SuccessWithMeta(json.RawMessage(payload), &APIMeta{Cache: CacheBypass})
		return
	}

	key := cache.Key(householdID, q.For, string(intent), q.LikeID, q.Seed)
	payload, hit, err := h.slates.Load(ctx, key, func(ctx context.Context) ([]byte, error) {
		return h.rankPayload(ctx, req, false)
	})
	if err != nil {
		respondError(rw, err)
		return
	}
	outcome := CacheMiss
	if hit {
		outcome = CacheHit
	}
	rw.SuccessWithMeta(json.RawMessage(payload), &APIMeta{Cache: outcome})
}

// cacheable reports whether q maps onto a result cache key. The key carries
// no count, so only default-sized slates are shared.
func (h *Handler) cacheable(q RecommendationQuery) bool {
	if q.Explain {
		return false
	}
	return q.Count == 0 || q.Count == h.config.DefaultCount
}

// resolvePeople returns the members a slate is ranked for.
func (h *Handler) resolvePeople(ctx context.Context, householdID, forID string) ([]recommend.Person, error) {
	members, err := h.store.PeopleInHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if forID == ForHousehold {
		return members, nil
	}
	for i := range members {
		if members[i].ID == forID {
			return members[i : i+1], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPersonNotInHousehold, forID)
}

// rankPayload ranks req and serializes the response data. It ignores caller
// cancellation; RankTimeout bounds it.
func (h *Handler) rankPayload(ctx context.Context, req recommend.Request, envelope bool) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.RankTimeout)
	defer cancel()

	start := time.Now()
	slate, err := h.ranker.Rank(ctx, req)
	if err != nil {
		return nil, err
	}
	metrics.RecordSlate(string(slate.Intent), len(slate.Items), staleItems(slate.Items), time.Since(start))

	logging.Ctx(ctx).Debug().
		Str("intent", string(slate.Intent)).
		Int("people", len(req.People)).
		Strs("items", slate.IDs()).
		Msg("Slate ranked")

	if envelope {
		return json.Marshal(ExplainEnvelope{Items: slate.Items, Family: slate.Family})
	}
	return json.Marshal(slate.Items)
}

func staleItems(items []recommend.RankedItem) int {
	n := 0
	for i := range items {
		if a := items[i].Availability; a != nil && a.Stale {
			n++
		}
	}
	return n
}
