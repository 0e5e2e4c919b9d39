// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/couchside/internal/metrics"
)

// FillFunc computes the bytes for a missing key.
type FillFunc func(ctx context.Context) ([]byte, error)

// Loader reads through a ResultCache and collapses concurrent misses.
//
// Each household has a generation that InvalidateHousehold bumps. A fill
// only stores its result when the generation it started under is still
// current, so a slate computed before a write never lands after it.
type Loader struct {
	store  ResultCache
	group  singleflight.Group
	logger zerolog.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

// NewLoader creates a loader over store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLoader(store ResultCache, logger zerolog.Logger) *Loader {
	return &Loader{
		store:  store,
		logger: logger.With().Str("component", "cache").Logger(),
		gens:   make(map[string]uint64),
	}
}

// Load returns the cached value for key, or runs fill once across all
// concurrent callers and stores its result. Cache read and write errors are
// logged and treated as misses; fill errors are returned and not cached.
func (l *Loader) Load(ctx context.Context, key string, fill FillFunc) ([]byte, bool, error) {
	data, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if ok {
		metrics.RecordCacheLookup(true)
		return data, true, nil
	}
	metrics.RecordCacheLookup(false)

	household := householdOf(key)
	gen := l.generation(household)
	v, err, _ := l.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		out, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		l.storeIfCurrent(ctx, household, gen, key, out)
		return out, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("fill %s: %w", key, err)
	}
	return v.([]byte), false, nil
}

// InvalidateHousehold drops every cached slate of a household.
func (l *Loader) InvalidateHousehold(ctx context.Context, householdID string) (int, error) {
	l.mu.Lock()
	l.gens[householdID]++
	l.mu.Unlock()

	n, err := l.store.InvalidatePrefix(ctx, HouseholdPrefix(householdID))
	if err != nil {
		return 0, fmt.Errorf("invalidate household %s: %w", householdID, err)
	}
	metrics.RecsCacheInvalidations.Add(float64(n))
	l.logger.Debug().Str("household_id", householdID).Int("removed", n).Msg("household slates invalidated")
	return n, nil
}

func (l *Loader) generation(householdID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[householdID]
}

// storeIfCurrent writes value unless the household was invalidated after gen
// was read. The lock is held across Set so an invalidation cannot slip
// between the check and the write.
func (l *Loader) storeIfCurrent(ctx context.Context, householdID string, gen uint64, key string, value []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gens[householdID] != gen {
		l.logger.Debug().Str("key", key).Msg("fill outlived an invalidation, not cached")
		return
	}
	if err := l.store.Set(ctx, key, value); err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// householdOf extracts the household ID from a key built by Key.
func householdOf(key string) string {
	rest := strings.TrimPrefix(key, KeyPrefix)
	id, _, _ := strings.Cut(rest, "|")
	return id
}
