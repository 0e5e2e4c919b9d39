// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

// Package metrics holds the Prometheus collectors for Couchside.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation metrics
	RecsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recs_requests_total",
			Help: "Total ranking requests by intent",
		},
		[]string{"intent"},
	)

	RecsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recs_duration_seconds",
			Help:    "Ranking latency in seconds (cache misses only)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"intent"},
	)

	RecsItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recs_items_total",
			Help: "Total items returned in slates",
		},
		[]string{"intent"},
	)

	RecsItemsStaleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recs_items_stale_total",
			Help: "Returned items whose availability is stale",
		},
		[]string{"intent"},
	)

	RecsStaleRatio = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recs_stale_ratio",
			Help:    "Share of stale items per slate",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 1},
		},
		[]string{"intent"},
	)

	RecsSpoilerFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recs_spoiler_fallbacks_total",
			Help: "Rationales replaced by the generic sentence after a spoiler lint hit",
		},
	)

	RecsSubstitutions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recs_substitutions_total",
			Help: "Boundary-safe substitutes injected into slates",
		},
	)

	// Result cache metrics
	RecsCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recs_cache_hits_total",
			Help: "Result cache hits",
		},
	)

	RecsCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recs_cache_misses_total",
			Help: "Result cache misses",
		},
	)

	RecsCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recs_cache_invalidations_total",
			Help: "Result cache entries removed by household invalidation",
		},
	)

	// Embedding store metrics
	EmbeddingStoreFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_store_fallbacks_total",
			Help: "Vector lookups answered by on-demand computation",
		},
		[]string{"reason"}, // "miss", "error", "breaker_open", "dimension", "stale"
	)

	EmbeddingRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_rebuilds_total",
			Help: "Stored vectors rewritten",
		},
		[]string{"kind"}, // "person", "item"
	)

	// Event metrics
	EventsHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_handled_total",
			Help: "Events handled by topic and status",
		},
		[]string{"topic", "status"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordSlate records the size and staleness of one served slate.
func RecordSlate(intent string, items, stale int, duration time.Duration) {
	if intent == "" {
		intent = "default"
	}
	RecsRequestsTotal.WithLabelValues(intent).Inc()
	RecsDuration.WithLabelValues(intent).Observe(duration.Seconds())
	RecsItemsTotal.WithLabelValues(intent).Add(float64(items))
	RecsItemsStaleTotal.WithLabelValues(intent).Add(float64(stale))
	ratio := 0.0
	if items > 0 {
		ratio = float64(stale) / float64(items)
	}
	RecsStaleRatio.WithLabelValues(intent).Observe(ratio)
}

// RecordCacheLookup counts a result cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		RecsCacheHits.Inc()
		return
	}
	RecsCacheMisses.Inc()
}

// RecordEvent counts a handled event.
func RecordEvent(topic string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsHandledTotal.WithLabelValues(topic, status).Inc()
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
