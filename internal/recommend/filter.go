// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"math"
	"sort"
	"strings"
)

// candidatePool is the filter output.
type candidatePool struct {
	// Safe candidates in walk order.
	Safe []*Item

	// Violators failed only the boundary check.
	Violators []*Item
}

// walkOrder returns the catalog in candidate order: neighbor rank first
// when neighbors are given, then item ID.
func walkOrder(items []Item, neighbors []string) []*Item {
	out := make([]*Item, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	rank := make(map[string]int, len(neighbors))
	for i, id := range neighbors {
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}
	pos := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		return math.MaxInt
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := pos(out[i].ID), pos(out[j].ID)
		if pi != pj {
			return pi < pj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// episodeLength returns the item's episode length or the configured default.
func (w *ScoringWeights) episodeLength(item *Item) int {
	if item.Metadata.EpisodeLength > 0 {
		return item.Metadata.EpisodeLength
	}
	return w.DefaultEpisodeLength
}

// seasons returns the item's season count, at least 1.
func seasons(item *Item) int {
	if item.Metadata.Seasons > 0 {
		return item.Metadata.Seasons
	}
	return 1
}

// violatesBoundaries reports whether any warning or flag of item is excluded.
// boundaries holds lower-cased keys; item labels match regardless of case.
func violatesBoundaries(item *Item, boundaries stringSet) bool {
	if len(boundaries) == 0 {
		return false
	}
	for _, labels := range [][]string{item.Warnings, item.Flags} {
		for _, l := range labels {
			if boundaries.has(strings.ToLower(strings.TrimSpace(l))) {
				return true
			}
		}
	}
	return false
}

// filterCandidates splits the ordered catalog into safe candidates and
// boundary violators. Items without offers, too long for short_tonight or
// rated above the age limit are dropped.
func filterCandidates(w *ScoringWeights, ordered []*Item, intent Intent, gs *groupSignals) candidatePool {
	var pool candidatePool
	for _, item := range ordered {
		if len(item.Offers) == 0 {
			continue
		}
		if intent == IntentShortTonight && w.episodeLength(item) > w.ShortEpisodeMax {
			continue
		}
		if gs.HasAgeLimit {
			if age, ok := item.Metadata.MinimumAge(); ok && age > gs.AgeLimit {
				continue
			}
		}
		if violatesBoundaries(item, gs.Boundaries) {
			pool.Violators = append(pool.Violators, item)
			continue
		}
		pool.Safe = append(pool.Safe, item)
	}
	return pool
}
