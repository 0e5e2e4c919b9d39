// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

/*
Package api provides the HTTP surface of Couchside.

Routes are served by a chi router with a fixed middleware stack: request ID
and correlation ID injection, real IP extraction, request logging, panic
recovery, CORS (go-chi/cors), Prometheus request metrics and per-IP rate
limiting (go-chi/httprate).

# Endpoints

	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	GET  /api/v1/households/{householdID}/recommendations
	GET  /api/v1/households/{householdID}/people
	POST /api/v1/ratings
	POST /api/v1/people/{personID}/onboarding
	PUT  /api/v1/people/{personID}/boundaries
	POST /api/v1/people/{personID}/history
	GET  /metrics

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": ..., "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3, "cache": "hit"}}
	{"success": false, "error": {"code": "VALIDATION_FAILED", "message": "...", "details": [...]}, "meta": {...}}

# Result Cache

Default-sized slates without explain are read through the result cache,
keyed by household, audience, intent, anchor and seed. Concurrent misses on
the same key share one ranking run. Every write drops the household's
cached slates before it is acknowledged, then publishes an event that
rebuilds the rater's stored vector.

# Usage

	h := api.NewHandler(db, db, vectors, engine, loader, publisher, api.HandlerConfig{
	    DefaultCount: cfg.Recommend.DefaultCount,
	    MaxCount:     cfg.Recommend.MaxCount,
	    RankTimeout:  cfg.Server.RankTimeout,
	})
	srv := &http.Server{
	    Addr:    cfg.Server.Addr(),
	    Handler: api.NewRouter(h, api.ChiMiddlewareConfigFrom(cfg.Security)).Setup(),
	}
*/
package api
