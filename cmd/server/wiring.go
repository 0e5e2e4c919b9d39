// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/couchside/internal/cache"
	"github.com/tomtom215/couchside/internal/config"
	"github.com/tomtom215/couchside/internal/eventprocessor"
	"github.com/tomtom215/couchside/internal/recommend"
	"github.com/tomtom215/couchside/internal/supervisor/services"
)

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 5 * time.Second

// engineConfig overlays the operator knobs on the engine defaults.
func engineConfig(rc *config.RecommendConfig) (*recommend.Config, error) {
	ec := recommend.DefaultConfig()

	ec.DefaultCount = rc.DefaultCount
	ec.MaxCount = rc.MaxCount

	ec.Feedback.RatingVeryGood = rc.RatingWeightVeryGood
	ec.Feedback.RatingAcceptable = rc.RatingWeightAcceptable
	ec.Feedback.RatingBad = rc.RatingPenaltyBad
	ec.Feedback.TagLikeBonus = rc.TagLikeBonus
	ec.Feedback.HistoryAdjBoost = rc.HistoryAdjBoost

	ec.Family.CoverageMinFit = rc.FamilyCoverageMinFit
	ec.Family.StrongMinFit = rc.FamilyStrongMinFit
	ec.Family.StrongRule = rc.FamilyStrongRule
	ec.Family.StrongLockCount = rc.FamilyStrongLockCount

	ec.RationaleMaxChars = rc.RationaleMaxChars
	ec.OffersStaleAfter = rc.OffersStaleAfter
	ec.VectorSearchMinItems = rc.VectorSearchMinItems
	ec.HistoryLimit = rc.HistoryLimit

	if err := ec.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return ec, nil
}

// newResultCache builds the configured cache backend. The returned close
// function releases backend connections.
func newResultCache(ctx context.Context, cfg *config.Config) (cache.ResultCache, func() error, error) {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := cache.NewRedisStore(client, cfg.Cache.TTL)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = client.Close() //nolint:errcheck // already failing
			return nil, nil, err
		}
		return store, client.Close, nil

	default:
		lru := cache.NewLRUCache(cfg.Cache.Capacity, cfg.Cache.TTL)
		return cache.NewMemoryStore(lru), func() error { return nil }, nil
	}
}

// routerDeps is what every freshly built event router subscribes with.
type routerDeps struct {
	config     config.EventsConfig
	subscriber message.Subscriber
	slates     eventprocessor.HouseholdInvalidator
	reader     eventprocessor.RatingReader
	indexer    eventprocessor.PersonIndexer
	logger     watermill.LoggerAdapter
}

// routerFactory returns a factory that builds a router with the cache and
// embedding handlers registered. The supervisor calls it on every restart.
func routerFactory(deps routerDeps) services.RouterFactory {
	return func() (services.EventRouter, error) {
		router, err := eventprocessor.NewRouter(eventprocessor.RouterConfigFrom(deps.config), deps.logger)
		if err != nil {
			return nil, err
		}

		cacheHandler, err := eventprocessor.NewCacheHandler(deps.slates, deps.logger)
		if err != nil {
			return nil, err
		}
		embeddingHandler, err := eventprocessor.NewEmbeddingHandler(deps.reader, deps.indexer, eventprocessor.EmbeddingHandlerConfig{
			RebuildsPerSecond: deps.config.RebuildPerSec,
			Burst:             deps.config.RebuildBurst,
		}, deps.logger)
		if err != nil {
			return nil, err
		}

		if err := eventprocessor.RegisterHandlers(router, deps.subscriber, eventprocessor.Handlers{
			Cache:     cacheHandler,
			Embedding: embeddingHandler,
		}); err != nil {
			return nil, err
		}
		return router, nil
	}
}
