// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

/*
Package cache stores serialized recommendation slates.

Two backends implement ResultCache:
  - MemoryStore: an in-process LRU with TTL (the default)
  - RedisStore: a shared Redis instance for multi-replica deployments

Keys follow the layout

	recs:cache:<household>|<for>|<intent>|<anchor or ->|<seed or ->

so every slate of a household shares the prefix returned by HouseholdPrefix.
Rating and preference writes call InvalidatePrefix with that prefix.

# Stampede Protection

Loader wraps a ResultCache with golang.org/x/sync/singleflight: concurrent
misses for the same key run the fill function once and share its result.

	loader := cache.NewLoader(store, logger)
	data, hit, err := loader.Load(ctx, key, func(ctx context.Context) ([]byte, error) {
	    slate, err := engine.Rank(ctx, req)
	    if err != nil {
	        return nil, err
	    }
	    return json.Marshal(slate)
	})

# Thread Safety

All types in this package are safe for concurrent use.
*/
package cache
