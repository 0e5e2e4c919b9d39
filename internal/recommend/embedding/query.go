// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/couchside/internal/logging"
	"github.com/tomtom215/couchside/internal/metrics"
)

// SimilarityQuery produces vectors for items and people.
// A nil person vector means the person has no usable ratings.
type SimilarityQuery interface {
	ItemVector(ctx context.Context, f Features) Vector
	PersonVector(ctx context.Context, personID string, rated []Weighted) Vector
}

// ItemCounter is implemented by queries backed by a store large enough to
// support neighbor ordering. HasPersonVector reports whether a stored vector
// built from exactly rated exists.
type ItemCounter interface {
	StoredItemCount(ctx context.Context) int
	HasPersonVector(ctx context.Context, personID string, rated []Weighted) bool
}

// Ephemeral computes every vector on demand.
type Ephemeral struct{}

var _ SimilarityQuery = Ephemeral{}

// ItemVector implements SimilarityQuery.
func (Ephemeral) ItemVector(_ context.Context, f Features) Vector {
	return Embed(f.Tokens())
}

// PersonVector implements SimilarityQuery.
func (Ephemeral) PersonVector(_ context.Context, _ string, rated []Weighted) Vector {
	if len(rated) == 0 {
		return nil
	}
	v := EmbedWeighted(rated)
	if IsZero(v) {
		return nil
	}
	return v
}

// BreakerConfig configures the store circuit breaker.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// Stored reads precomputed vectors and falls back to Ephemeral when a vector
// is missing or the store is unavailable. A person vector is used only when
// its fingerprint matches the ratings passed in; until a rebuild catches up
// the on-demand vector is returned. Store access goes through a circuit
// breaker so a failing store is skipped quickly.
type Stored struct {
	store    VectorStore
	cb       *gobreaker.CircuitBreaker[Vector]
	fallback Ephemeral
	logger   zerolog.Logger
}

var (
	_ SimilarityQuery = (*Stored)(nil)
	_ ItemCounter     = (*Stored)(nil)
)

// NewStored wraps store with a circuit breaker.
func NewStored(store VectorStore, cfg BreakerConfig) *Stored {
	logger := logging.WithComponent("embedding")
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:    "vector-store",
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("vector store breaker state changed")
		},
	}
	return &Stored{
		store:  store,
		cb:     gobreaker.NewCircuitBreaker[Vector](settings),
		logger: logger,
	}
}

// BreakerState returns the breaker state for health reporting.
func (s *Stored) BreakerState() string {
	return s.cb.State().String()
}

func (s *Stored) get(ctx context.Context, key string) (Vector, bool) {
	v, err := s.cb.Execute(func() (Vector, error) {
		return s.store.Get(ctx, key)
	})
	return s.checked(key, v, err)
}

// getPerson returns the stored vector only when it was built from rated.
func (s *Stored) getPerson(ctx context.Context, personID string, rated []Weighted) (Vector, bool) {
	var fingerprint string
	v, err := s.cb.Execute(func() (Vector, error) {
		pv, fp, err := s.store.GetPerson(ctx, personID)
		fingerprint = fp
		return pv, err
	})
	v, ok := s.checked(PersonKey(personID), v, err)
	if !ok {
		return nil, false
	}
	if fingerprint != Fingerprint(rated) {
		metrics.EmbeddingStoreFallbacks.WithLabelValues("stale").Inc()
		return nil, false
	}
	if IsZero(v) {
		return nil, false
	}
	return v, true
}

func (s *Stored) checked(key string, v Vector, err error) (Vector, bool) {
	if err != nil {
		reason := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			reason = "breaker_open"
		}
		metrics.EmbeddingStoreFallbacks.WithLabelValues(reason).Inc()
		s.logger.Debug().Err(err).Str("key", key).Msg("vector store read failed, computing on demand")
		return nil, false
	}
	if len(v) != Dim {
		if v != nil {
			metrics.EmbeddingStoreFallbacks.WithLabelValues("dimension").Inc()
		} else {
			metrics.EmbeddingStoreFallbacks.WithLabelValues("miss").Inc()
		}
		return nil, false
	}
	return v, true
}

func (s *Stored) put(ctx context.Context, key string, v Vector) error {
	_, err := s.cb.Execute(func() (Vector, error) {
		return nil, s.store.Put(ctx, key, v)
	})
	return err
}

// ItemVector implements SimilarityQuery.
func (s *Stored) ItemVector(ctx context.Context, f Features) Vector {
	if v, ok := s.get(ctx, ItemKey(f.ID)); ok {
		return v
	}
	return s.fallback.ItemVector(ctx, f)
}

// PersonVector implements SimilarityQuery.
func (s *Stored) PersonVector(ctx context.Context, personID string, rated []Weighted) Vector {
	if len(rated) == 0 {
		return nil
	}
	if v, ok := s.getPerson(ctx, personID, rated); ok {
		return v
	}
	return s.fallback.PersonVector(ctx, personID, rated)
}

// StoredItemCount implements ItemCounter. It reports zero while the breaker
// is open or when the store cannot be read.
func (s *Stored) StoredItemCount(ctx context.Context) int {
	if s.cb.State() == gobreaker.StateOpen {
		return 0
	}
	n, err := s.store.CountItems(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("vector count unavailable")
		return 0
	}
	return n
}

// HasPersonVector implements ItemCounter.
func (s *Stored) HasPersonVector(ctx context.Context, personID string, rated []Weighted) bool {
	_, ok := s.getPerson(ctx, personID, rated)
	return ok
}

// RebuildPerson recomputes and stores a person vector with the fingerprint
// of rated.
func (s *Stored) RebuildPerson(ctx context.Context, personID string, rated []Weighted) error {
	v := EmbedWeighted(rated)
	_, err := s.cb.Execute(func() (Vector, error) {
		return nil, s.store.PutPerson(ctx, personID, v, Fingerprint(rated))
	})
	if err != nil {
		return fmt.Errorf("rebuild person %s: %w", personID, err)
	}
	metrics.EmbeddingRebuilds.WithLabelValues("person").Inc()
	return nil
}

// RebuildItems recomputes and stores item vectors. It stops at the first
// failure and reports how many were written.
func (s *Stored) RebuildItems(ctx context.Context, items []Features) (int, error) {
	written := 0
	for _, f := range items {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := s.put(ctx, ItemKey(f.ID), Embed(f.Tokens())); err != nil {
			return written, fmt.Errorf("rebuild item %s: %w", f.ID, err)
		}
		written++
	}
	metrics.EmbeddingRebuilds.WithLabelValues("item").Add(float64(written))
	return written, nil
}
