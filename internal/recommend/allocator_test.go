// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"fmt"
	"testing"
)

func candidates(prefix string, n int, novelty float64) []*ScoredCandidate {
	out := make([]*ScoredCandidate, n)
	for i := range out {
		out[i] = &ScoredCandidate{
			Item:    &Item{ID: fmt.Sprintf("%s-%d", prefix, i)},
			Score:   1 - float64(i)*0.1,
			Novelty: novelty,
		}
	}
	return out
}

func countPrefix(picked []*ScoredCandidate, prefix string) int {
	n := 0
	for _, sc := range picked {
		if len(sc.Item.ID) > len(prefix) && sc.Item.ID[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func TestSplitPools(t *testing.T) {
	t.Parallel()

	ac := &DefaultConfig().Allocation
	mid := candidates("mid", 1, 0.5)
	p := ac.splitPools(IntentDefault, mid)
	if len(p.Comfort) != 1 || len(p.Discovery) != 0 {
		t.Errorf("default: novelty 0.5 should be comfort, got %d/%d", len(p.Comfort), len(p.Discovery))
	}
	p = ac.splitPools(IntentSurprise, mid)
	if len(p.Comfort) != 0 || len(p.Discovery) != 1 {
		t.Errorf("surprise: novelty 0.5 should be discovery, got %d/%d", len(p.Comfort), len(p.Discovery))
	}

	tied := []*ScoredCandidate{
		{Item: &Item{ID: "b"}, Score: 1, Novelty: 0.2},
		{Item: &Item{ID: "a"}, Score: 1, Novelty: 0.2},
		{Item: &Item{ID: "c"}, Score: 1, Novelty: 0.1},
	}
	p = ac.splitPools(IntentDefault, tied)
	got := []string{p.Comfort[0].Item.ID, p.Comfort[1].Item.ID, p.Comfort[2].Item.ID}
	if got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Errorf("comfort order = %v, want [c a b]", got)
	}
}

func TestAllocate(t *testing.T) {
	t.Parallel()

	ac := &DefaultConfig().Allocation
	tests := []struct {
		name          string
		intent        Intent
		count         int
		comfort       int
		discovery     int
		wantComfort   int
		wantDiscovery int
	}{
		{name: "default 70/30", intent: IntentDefault, count: 6, comfort: 6, discovery: 6, wantComfort: 4, wantDiscovery: 2},
		{name: "surprise 40/60", intent: IntentSurprise, count: 5, comfort: 6, discovery: 6, wantComfort: 2, wantDiscovery: 3},
		{name: "comfort caps discovery", intent: IntentComfort, count: 10, comfort: 3, discovery: 6, wantComfort: 3, wantDiscovery: 1},
		{name: "comfort fills from comfort", intent: IntentComfort, count: 4, comfort: 6, discovery: 6, wantComfort: 4, wantDiscovery: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := pools{Comfort: candidates("c", tt.comfort, 0.1), Discovery: candidates("d", tt.discovery, 0.9)}
			picked := ac.allocate(tt.intent, tt.count, p)
			if got := countPrefix(picked, "c-"); got != tt.wantComfort {
				t.Errorf("comfort = %d, want %d", got, tt.wantComfort)
			}
			if got := countPrefix(picked, "d-"); got != tt.wantDiscovery {
				t.Errorf("discovery = %d, want %d", got, tt.wantDiscovery)
			}
		})
	}
}

func TestPad(t *testing.T) {
	t.Parallel()

	p := pools{Comfort: candidates("c", 3, 0.1), Discovery: candidates("d", 1, 0.9)}

	got := pad(IntentDefault, 2, nil, p)
	if len(got) != 2 || got[0].Item.ID != "d-0" || got[1].Item.ID != "c-0" {
		t.Errorf("default pad = %v", idsOf(got))
	}

	got = pad(IntentComfort, 5, []*ScoredCandidate{p.Comfort[0]}, p)
	if len(got) != 3 || countPrefix(got, "d-") != 0 {
		t.Errorf("comfort pad = %v, want only comfort items", idsOf(got))
	}

	full := candidates("x", 2, 0.5)
	if got := pad(IntentDefault, 2, full, p); len(got) != 2 {
		t.Errorf("full slate padded to %d", len(got))
	}
}

func idsOf(s []*ScoredCandidate) []string {
	out := make([]string, len(s))
	for i, sc := range s {
		out[i] = sc.Item.ID
	}
	return out
}
