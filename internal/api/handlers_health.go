// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/couchside/internal/logging"
)

// readyTimeout bounds the readiness probe's database round trips.
const readyTimeout = 2 * time.Second

// breakerClosed is the healthy vector store breaker state.
const breakerClosed = "closed"

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests.
// Returns 200 OK only if the database answers, 503 otherwise. An open vector
// store breaker is reported but does not fail readiness, since vectors are
// then computed on demand.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Readiness check failed: database ping")
		rw.ServiceUnavailable("Database is not reachable")
		return
	}
	counts, err := h.health.GetRecordCounts(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Readiness check failed: record counts")
		rw.ServiceUnavailable("Database is not queryable")
		return
	}

	body := map[string]interface{}{
		"ready":   true,
		"records": counts,
	}
	if h.vectors != nil {
		state := h.vectors.BreakerState()
		body["vector_store"] = state
		if state != breakerClosed {
			logging.Ctx(ctx).Warn().Str("breaker", state).Msg("Vector store degraded, using on-demand vectors")
		}
	}
	rw.Success(body)
}
