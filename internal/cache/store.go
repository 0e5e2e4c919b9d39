// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package cache

import (
	"context"
	"strconv"
	"strings"
)

// KeyPrefix starts every recommendation cache key.
const KeyPrefix = "recs:cache:"

// ResultCache stores serialized slates.
type ResultCache interface {
	// Get returns the cached bytes; a miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the backend TTL.
	Set(ctx context.Context, key string, value []byte) error

	// InvalidatePrefix removes every key starting with prefix.
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

// Key builds a slate cache key. forID is a person ID or "household".
func Key(householdID, forID, intent, anchorID string, seed *int64) string {
	anchor := anchorID
	if anchor == "" {
		anchor = "-"
	}
	s := "-"
	if seed != nil {
		s = strconv.FormatInt(*seed, 10)
	}
	return strings.Join([]string{HouseholdPrefix(householdID) + forID, intent, anchor, s}, "|")
}

// HouseholdPrefix is the prefix shared by every slate of a household.
func HouseholdPrefix(householdID string) string {
	return KeyPrefix + householdID + "|"
}

// MemoryStore is a ResultCache backed by an in-process LRU.
type MemoryStore struct {
	lru *LRUCache
}

var _ ResultCache = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(lru *LRUCache) *MemoryStore {
	return &MemoryStore{lru: lru}
}

// Get implements ResultCache.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

// Set implements ResultCache.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.lru.Add(key, value)
	return nil
}

// InvalidatePrefix implements ResultCache.
func (m *MemoryStore) InvalidatePrefix(_ context.Context, prefix string) (int, error) {
	return m.lru.RemovePrefix(prefix), nil
}
