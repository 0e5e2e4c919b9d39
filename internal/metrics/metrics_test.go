// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSlate(t *testing.T) {
	before := testutil.ToFloat64(RecsItemsStaleTotal.WithLabelValues("weekend_binge"))
	beforeItems := testutil.ToFloat64(RecsItemsTotal.WithLabelValues("weekend_binge"))

	RecordSlate("weekend_binge", 6, 2, 12*time.Millisecond)

	if got := testutil.ToFloat64(RecsItemsStaleTotal.WithLabelValues("weekend_binge")) - before; got != 2 {
		t.Errorf("stale items delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(RecsItemsTotal.WithLabelValues("weekend_binge")) - beforeItems; got != 6 {
		t.Errorf("items delta = %v, want 6", got)
	}
}

func TestRecordSlate_EmptyIntentAndSlate(t *testing.T) {
	before := testutil.ToFloat64(RecsRequestsTotal.WithLabelValues("default"))
	RecordSlate("", 0, 0, time.Millisecond)
	if got := testutil.ToFloat64(RecsRequestsTotal.WithLabelValues("default")) - before; got != 1 {
		t.Errorf("requests delta = %v, want 1", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(RecsCacheHits)
	misses := testutil.ToFloat64(RecsCacheMisses)

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	if got := testutil.ToFloat64(RecsCacheHits) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(RecsCacheMisses) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}

func TestRecordEvent(t *testing.T) {
	ok := testutil.ToFloat64(EventsHandledTotal.WithLabelValues("rating.written", "ok"))
	failed := testutil.ToFloat64(EventsHandledTotal.WithLabelValues("rating.written", "error"))

	RecordEvent("rating.written", nil)
	RecordEvent("rating.written", errors.New("boom"))

	if got := testutil.ToFloat64(EventsHandledTotal.WithLabelValues("rating.written", "ok")) - ok; got != 1 {
		t.Errorf("ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(EventsHandledTotal.WithLabelValues("rating.written", "error")) - failed; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/health/live", "200"))
	RecordHTTPRequest("GET", "/api/v1/health/live", 200, time.Millisecond)
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/health/live", "200")) - before; got != 1 {
		t.Errorf("delta = %v, want 1", got)
	}
}
