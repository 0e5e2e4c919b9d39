// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/couchside/internal/recommend"
	"github.com/tomtom215/couchside/internal/recommend/embedding"
)

// CatalogReader lists the catalog.
type CatalogReader interface {
	Catalog(ctx context.Context) ([]recommend.Item, error)
}

// ItemIndexer stores item vectors.
type ItemIndexer interface {
	RebuildItems(ctx context.Context, items []embedding.Features) (int, error)
}

// BackfillConfig configures EmbeddingBackfillService.
type BackfillConfig struct {
	// Interval between full passes. Zero runs one pass at startup only.
	Interval time.Duration

	// PassTimeout bounds one pass.
	// Default: 5m
	PassTimeout time.Duration
}

// EmbeddingBackfillService writes a stored vector for every catalog item,
// once at startup and then every Interval. Items added or edited since the
// last pass become eligible for neighbor search after the next one.
type EmbeddingBackfillService struct {
	catalog CatalogReader
	index   ItemIndexer
	config  BackfillConfig
	logger  zerolog.Logger
}

// NewEmbeddingBackfillService creates the backfill service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEmbeddingBackfillService(catalog CatalogReader, index ItemIndexer, cfg BackfillConfig, logger zerolog.Logger) *EmbeddingBackfillService {
	if cfg.PassTimeout <= 0 {
		cfg.PassTimeout = 5 * time.Minute
	}
	return &EmbeddingBackfillService{
		catalog: catalog,
		index:   index,
		config:  cfg,
		logger:  logger.With().Str("service", "embedding-backfill").Logger(),
	}
}

// Serve implements suture.Service. Failed passes are logged and retried on
// the next tick rather than restarting the service.
func (s *EmbeddingBackfillService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.config.Interval).Msg("embedding backfill starting")

	if err := s.pass(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("initial backfill failed")
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("embedding backfill stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := s.pass(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled backfill failed")
			}
		}
	}
}

// pass rebuilds every item vector.
func (s *EmbeddingBackfillService) pass(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.PassTimeout)
	defer cancel()

	start := time.Now()
	items, err := s.catalog.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	features := make([]embedding.Features, len(items))
	for i := range items {
		features[i] = recommend.ItemFeatures(&items[i])
	}
	written, err := s.index.RebuildItems(ctx, features)
	if err != nil {
		return fmt.Errorf("rebuild item vectors (%d written): %w", written, err)
	}

	s.logger.Info().
		Int("items", len(items)).
		Int("written", written).
		Dur("duration", time.Since(start)).
		Msg("embedding backfill complete")
	return nil
}

// String implements fmt.Stringer.
func (s *EmbeddingBackfillService) String() string {
	return "embedding-backfill"
}
