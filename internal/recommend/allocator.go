// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"math"
	"sort"
)

// pools are the comfort and discovery candidates, each sorted.
type pools struct {
	Comfort   []*ScoredCandidate
	Discovery []*ScoredCandidate
}

// splitPools partitions candidates by novelty. Comfort sorts by (score
// desc, novelty asc, id); discovery by (score desc, novelty desc, id).
func (c *AllocationConfig) splitPools(intent Intent, scored []*ScoredCandidate) pools {
	threshold := c.NoveltyThreshold
	if intent == IntentSurprise {
		threshold = c.SurpriseNoveltyThreshold
	}
	var p pools
	for _, sc := range scored {
		if sc.Novelty <= threshold {
			p.Comfort = append(p.Comfort, sc)
		} else {
			p.Discovery = append(p.Discovery, sc)
		}
	}
	sort.SliceStable(p.Comfort, func(i, j int) bool {
		a, b := p.Comfort[i], p.Comfort[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Novelty != b.Novelty {
			return a.Novelty < b.Novelty
		}
		return a.Item.ID < b.Item.ID
	})
	sort.SliceStable(p.Discovery, func(i, j int) bool {
		a, b := p.Discovery[i], p.Discovery[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Novelty != b.Novelty {
			return a.Novelty > b.Novelty
		}
		return a.Item.ID < b.Item.ID
	})
	return p
}

// allocate fills a slate from the pools per intent. Comfort takes comfort
// items first and caps discovery at floor(cap*count); other intents take
// round(share*count) comfort items, then discovery.
func (c *AllocationConfig) allocate(intent Intent, count int, p pools) []*ScoredCandidate {
	if count <= 0 {
		return nil
	}
	if intent == IntentComfort {
		picked := append([]*ScoredCandidate{}, head(p.Comfort, count)...)
		if need := count - len(picked); need > 0 {
			dCap := int(math.Floor(float64(count) * c.ComfortDiscoveryCap))
			picked = append(picked, head(p.Discovery, min(dCap, need))...)
		}
		return picked
	}

	share := c.DefaultComfortShare
	if intent == IntentSurprise {
		share = c.SurpriseComfortShare
	}
	cTarget := int(math.Round(float64(count) * share))
	dTarget := max(0, count-cTarget)
	picked := make([]*ScoredCandidate, 0, count)
	picked = append(picked, head(p.Comfort, cTarget)...)
	picked = append(picked, head(p.Discovery, dTarget)...)
	return picked
}

// pad tops up a short slate from unused pool items. Non-comfort intents
// prefer discovery first; comfort pads from comfort only.
func pad(intent Intent, count int, picked []*ScoredCandidate, p pools) []*ScoredCandidate {
	if len(picked) >= count {
		return picked
	}
	used := make(map[string]struct{}, len(picked))
	for _, sc := range picked {
		used[sc.Item.ID] = struct{}{}
	}
	take := func(from []*ScoredCandidate) {
		for _, sc := range from {
			if len(picked) >= count {
				return
			}
			if _, ok := used[sc.Item.ID]; ok {
				continue
			}
			used[sc.Item.ID] = struct{}{}
			picked = append(picked, sc)
		}
	}
	if intent != IntentComfort {
		take(p.Discovery)
	}
	take(p.Comfort)
	return picked
}

func head(s []*ScoredCandidate, n int) []*ScoredCandidate {
	if n <= 0 {
		return nil
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
