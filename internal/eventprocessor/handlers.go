// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/time/rate"

	"github.com/tomtom215/couchside/internal/metrics"
	"github.com/tomtom215/couchside/internal/recommend"
	"github.com/tomtom215/couchside/internal/recommend/embedding"
)

// HouseholdInvalidator drops cached slates of a household.
type HouseholdInvalidator interface {
	InvalidateHousehold(ctx context.Context, householdID string) (int, error)
}

// RatingReader reads what a person vector is built from.
type RatingReader interface {
	Catalog(ctx context.Context) ([]recommend.Item, error)
	Ratings(ctx context.Context, personIDs []string) ([]recommend.RatingEvent, error)
}

// PersonIndexer stores recomputed person vectors.
type PersonIndexer interface {
	RebuildPerson(ctx context.Context, personID string, rated []embedding.Weighted) error
}

// HandlerStats holds handler counters.
type HandlerStats struct {
	MessagesReceived  int64
	MessagesProcessed int64
	ParseErrors       int64
	Failures          int64
}

type handlerCounters struct {
	received  atomic.Int64
	processed atomic.Int64
	parseErrs atomic.Int64
	failures  atomic.Int64
}

func (c *handlerCounters) stats() HandlerStats {
	return HandlerStats{
		MessagesReceived:  c.received.Load(),
		MessagesProcessed: c.processed.Load(),
		ParseErrors:       c.parseErrs.Load(),
		Failures:          c.failures.Load(),
	}
}

// decode parses msg. Malformed payloads are counted, logged and reported as
// a PermanentError; the caller acknowledges them.
func decode(msg *message.Message, c *handlerCounters, logger watermill.LoggerAdapter) (*Event, error) {
	c.received.Add(1)
	event, err := DeserializeEvent(msg.Payload)
	if err != nil {
		c.parseErrs.Add(1)
		metrics.RecordEvent("invalid", err)
		logger.Error("Failed to parse event", err, watermill.LogFields{"message_uuid": msg.UUID})
		return nil, NewPermanentError("event parse error", err)
	}
	return event, nil
}

func msgContext(msg *message.Message) context.Context {
	if ctx := msg.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// CacheHandler invalidates a household's cached slates on every write event.
type CacheHandler struct {
	cache    HouseholdInvalidator
	logger   watermill.LoggerAdapter
	counters handlerCounters
}

// NewCacheHandler creates a cache invalidation handler.
func NewCacheHandler(cache HouseholdInvalidator, logger watermill.LoggerAdapter) (*CacheHandler, error) {
	if cache == nil {
		return nil, fmt.Errorf("%w: cache invalidator is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &CacheHandler{cache: cache, logger: logger}, nil
}

// Handle processes one rating.written or preference.written message.
func (h *CacheHandler) Handle(msg *message.Message) error {
	event, err := decode(msg, &h.counters, h.logger)
	if err != nil {
		return nil //nolint:nilerr // malformed payloads are acknowledged
	}

	removed, err := h.cache.InvalidateHousehold(msgContext(msg), event.HouseholdID)
	metrics.RecordEvent(event.Topic(), err)
	if err != nil {
		h.counters.failures.Add(1)
		return NewRetryableError("invalidate household", err)
	}
	h.counters.processed.Add(1)
	h.logger.Debug("Household cache invalidated", watermill.LogFields{
		"event_id":     event.EventID,
		"household_id": event.HouseholdID,
		"removed":      removed,
	})
	return nil
}

// Stats returns handler counters.
func (h *CacheHandler) Stats() HandlerStats {
	return h.counters.stats()
}

// EmbeddingHandlerConfig configures the person vector rebuild throttle.
type EmbeddingHandlerConfig struct {
	// RebuildsPerSecond is the sustained rebuild rate.
	RebuildsPerSecond float64
	// Burst is how many rebuilds may run back to back.
	Burst int
	// WaitTimeout bounds how long one message waits for a rebuild token.
	WaitTimeout time.Duration
}

// DefaultEmbeddingHandlerConfig returns production defaults.
func DefaultEmbeddingHandlerConfig() EmbeddingHandlerConfig {
	return EmbeddingHandlerConfig{
		RebuildsPerSecond: 20,
		Burst:             40,
		WaitTimeout:       30 * time.Second,
	}
}

// EmbeddingHandler recomputes the stored vector of the person who rated.
type EmbeddingHandler struct {
	reader   RatingReader
	indexer  PersonIndexer
	limiter  *rate.Limiter
	wait     time.Duration
	logger   watermill.LoggerAdapter
	counters handlerCounters
}

// NewEmbeddingHandler creates a person vector rebuild handler.
func NewEmbeddingHandler(reader RatingReader, indexer PersonIndexer, cfg EmbeddingHandlerConfig, logger watermill.LoggerAdapter) (*EmbeddingHandler, error) {
	if reader == nil || indexer == nil {
		return nil, fmt.Errorf("%w: rating reader and person indexer are required", ErrInvalidConfig)
	}
	if cfg.RebuildsPerSecond <= 0 || cfg.Burst < 1 {
		return nil, fmt.Errorf("%w: rebuild rate %.2f/s burst %d", ErrInvalidConfig, cfg.RebuildsPerSecond, cfg.Burst)
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultEmbeddingHandlerConfig().WaitTimeout
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &EmbeddingHandler{
		reader:  reader,
		indexer: indexer,
		limiter: rate.NewLimiter(rate.Limit(cfg.RebuildsPerSecond), cfg.Burst),
		wait:    cfg.WaitTimeout,
		logger:  logger,
	}, nil
}

// Handle processes one rating.written message.
func (h *EmbeddingHandler) Handle(msg *message.Message) error {
	event, err := decode(msg, &h.counters, h.logger)
	if err != nil {
		return nil //nolint:nilerr // malformed payloads are acknowledged
	}

	ctx, cancel := context.WithTimeout(msgContext(msg), h.wait)
	defer cancel()

	err = h.rebuild(ctx, event.PersonID)
	metrics.RecordEvent(event.Topic(), err)
	if err != nil {
		h.counters.failures.Add(1)
		h.logger.Error("Person vector rebuild failed", err, watermill.LogFields{
			"event_id":  event.EventID,
			"person_id": event.PersonID,
		})
		return NewRetryableError("rebuild person vector", err)
	}
	h.counters.processed.Add(1)
	return nil
}

func (h *EmbeddingHandler) rebuild(ctx context.Context, personID string) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rebuild throttle: %w", err)
	}
	items, err := h.reader.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	ratings, err := h.reader.Ratings(ctx, []string{personID})
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	return h.indexer.RebuildPerson(ctx, personID, recommend.PersonWeights(ratings, items))
}

// Stats returns handler counters.
func (h *EmbeddingHandler) Stats() HandlerStats {
	return h.counters.stats()
}

// Handlers bundles the handlers registered on the router.
type Handlers struct {
	Cache     *CacheHandler
	Embedding *EmbeddingHandler
}

// RegisterHandlers subscribes the handlers to their topics. A nil
// Embedding handler skips vector rebuilds.
func RegisterHandlers(r *Router, sub message.Subscriber, h Handlers) error {
	if h.Cache == nil {
		return fmt.Errorf("%w: cache handler is required", ErrInvalidConfig)
	}
	r.AddConsumerHandler("cache-invalidate-ratings", TopicRatingWritten, sub, h.Cache.Handle)
	r.AddConsumerHandler("cache-invalidate-preferences", TopicPreferenceWritten, sub, h.Cache.Handle)
	if h.Embedding != nil {
		r.AddConsumerHandler("embedding-rebuild", TopicRatingWritten, sub, h.Embedding.Handle)
	}
	return nil
}
