// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package api

import (
	"context"
	"time"

	"github.com/tomtom215/couchside/internal/cache"
	"github.com/tomtom215/couchside/internal/database"
	"github.com/tomtom215/couchside/internal/eventprocessor"
	"github.com/tomtom215/couchside/internal/logging"
	"github.com/tomtom215/couchside/internal/recommend"
	"github.com/tomtom215/couchside/internal/recommend/embedding"
)

// Store is the subset of the catalog database the handlers read and write.
type Store interface {
	PeopleInHousehold(ctx context.Context, householdID string) ([]recommend.Person, error)
	GetPerson(ctx context.Context, id string) (*recommend.Person, error)
	InsertRating(ctx context.Context, ev *recommend.RatingEvent) (string, error)
	InsertPreference(ctx context.Context, profile *recommend.PreferenceProfile) (string, error)
	UpdateBoundaries(ctx context.Context, personID string, ageLimit *int, boundaries map[string]bool) error
	InsertHistory(ctx context.Context, personID, title string, seenAt time.Time) error
}

// HealthChecker reports database reachability for readiness probes.
type HealthChecker interface {
	Ping(ctx context.Context) error
	GetRecordCounts(ctx context.Context) (database.RecordCounts, error)
}

// VectorHealth reports the vector store circuit breaker state.
type VectorHealth interface {
	BreakerState() string
}

// Ranker produces slates.
type Ranker interface {
	Rank(ctx context.Context, req recommend.Request) (*recommend.Slate, error)
}

// SlateCache reads slates through the result cache.
type SlateCache interface {
	Load(ctx context.Context, key string, fill cache.FillFunc) ([]byte, bool, error)
	InvalidateHousehold(ctx context.Context, householdID string) (int, error)
}

// EventPublisher publishes write events.
type EventPublisher interface {
	Publish(ctx context.Context, event *eventprocessor.Event) error
}

var (
	_ Store          = (*database.DB)(nil)
	_ HealthChecker  = (*database.DB)(nil)
	_ VectorHealth   = (*embedding.Stored)(nil)
	_ Ranker         = (*recommend.Engine)(nil)
	_ SlateCache     = (*cache.Loader)(nil)
	_ EventPublisher = (*eventprocessor.Publisher)(nil)
)

// HandlerConfig holds the request-level limits.
type HandlerConfig struct {
	DefaultCount int
	MaxCount     int

	// RankTimeout bounds loading and ranking one slate.
	RankTimeout time.Duration
}

// Handler serves the HTTP API.
type Handler struct {
	store     Store
	health    HealthChecker
	vectors   VectorHealth
	ranker    Ranker
	slates    SlateCache
	publisher EventPublisher
	config    HandlerConfig
	startTime time.Time
}

// NewHandler creates a handler. publisher may be nil, in which case no
// vectors are rebuilt after writes. vectors may be nil when no vector store
// is configured.
func NewHandler(store Store, health HealthChecker, vectors VectorHealth, ranker Ranker, slates SlateCache, publisher EventPublisher, cfg HandlerConfig) *Handler {
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = 6
	}
	if cfg.MaxCount < cfg.DefaultCount {
		cfg.MaxCount = cfg.DefaultCount
	}
	if cfg.RankTimeout <= 0 {
		cfg.RankTimeout = 10 * time.Second
	}
	return &Handler{
		store:     store,
		health:    health,
		vectors:   vectors,
		ranker:    ranker,
		slates:    slates,
		publisher: publisher,
		config:    cfg,
		startTime: time.Now(),
	}
}

// notifyWrite drops the household's cached slates before the write is
// acknowledged, then publishes event so subscribers rebuild the person's
// vector. A failed publish is logged; the cache is already clean.
func (h *Handler) notifyWrite(ctx context.Context, event *eventprocessor.Event) {
	h.invalidate(ctx, event.HouseholdID)
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", event.Topic()).Msg("Event publish failed")
	}
}

func (h *Handler) invalidate(ctx context.Context, householdID string) {
	if _, err := h.slates.InvalidateHousehold(ctx, householdID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("household_id", householdID).Msg("Cache invalidation failed")
	}
}
