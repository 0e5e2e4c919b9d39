// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"math"
	"sort"
)

// similarity scores how close a safe item is to a violator:
// genreOverlap - w*|episodeLengthDelta|.
func (c *SubstitutionConfig) similarity(sw *ScoringWeights, violator, item *Item) float64 {
	g := float64(newStringSet(violator.Metadata.Genres).overlap(item.Metadata.Genres))
	dl := math.Abs(float64(sw.episodeLength(violator) - sw.episodeLength(item)))
	return g - c.EpisodeDeltaWeight*dl
}

// substitute injects boundary-safe near-equivalents of the top-scoring
// violators. Each violator yields at most one substitute. Substitutes are
// appended while the slate has room and otherwise replace from the tail.
func (r *ranker) substitute(count int, picked []*ScoredCandidate, safe, violators []*Item) []*ScoredCandidate {
	sc := &r.cfg.Substitution
	if len(violators) == 0 || sc.MaxViolators == 0 || count <= 0 {
		return picked
	}
	agg := scoreInput{LikedGenres: r.gs.LikedGenres, LikedCreators: r.gs.LikedCreators}

	type scoredViolator struct {
		item  *Item
		score float64
	}
	ranked := make([]scoredViolator, len(violators))
	for i, v := range violators {
		ranked[i] = scoredViolator{item: v, score: r.cfg.Scoring.score(v, r.req.Intent, agg).Score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].item.ID < ranked[j].item.ID
	})
	if len(ranked) > sc.MaxViolators {
		ranked = ranked[:sc.MaxViolators]
	}

	used := make(map[string]struct{}, len(picked))
	for _, p := range picked {
		used[p.Item.ID] = struct{}{}
	}

	var subs []*ScoredCandidate
	for _, v := range ranked {
		var best *Item
		bestSim := math.Inf(-1)
		for _, s := range safe {
			if _, ok := used[s.ID]; ok {
				continue
			}
			sim := sc.similarity(&r.cfg.Scoring, v.item, s)
			if best == nil || sim > bestSim || (sim == bestSim && s.ID < best.ID) {
				best, bestSim = s, sim
			}
		}
		if best == nil {
			continue
		}
		used[best.ID] = struct{}{}

		res := r.cfg.Scoring.score(best, r.req.Intent, agg)
		reasons := append([]string{sc.Marker}, res.Reasons...)
		subs = append(subs, &ScoredCandidate{
			Item:       best,
			Score:      res.Score + sc.ScoreBonus,
			Novelty:    res.Novelty,
			Reasons:    reasons,
			Factors:    FitFactors{Base: res.Score},
			Substitute: true,
		})
		r.logger.Debug().Str("violator_id", v.item.ID).Str("substitute_id", best.ID).
			Float64("similarity", bestSim).Msg("boundary substitute selected")
	}

	for i, sub := range subs {
		if len(picked) < count {
			picked = append(picked, sub)
			continue
		}
		if idx := len(picked) - 1 - i; idx >= 0 {
			picked[idx] = sub
		}
	}
	if len(picked) > count {
		picked = picked[:count]
	}
	return picked
}
