// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"math"
	"sort"
)

// Family warning codes.
const (
	WarningNoStrongPick        = "no_strong_pick"
	warningNoStrongPickMessage = "No single title clears the strong-fit bar for everyone; showing best shared options."
)

// familyCandidate carries one candidate's per-person scores.
type familyCandidate struct {
	sc     *ScoredCandidate
	scores []float64
}

// dominates reports whether b weakly dominates a in every dimension and
// strictly in at least one.
func dominates(b, a []float64) bool {
	strict := false
	for i := range a {
		if b[i] < a[i] {
			return false
		}
		if b[i] > a[i] {
			strict = true
		}
	}
	return strict
}

// paretoFrontier returns the indexes of candidates no other candidate dominates.
func paretoFrontier(vectors [][]float64) []int {
	var out []int
	for i, a := range vectors {
		dominated := false
		for j, b := range vectors {
			if i != j && dominates(b, a) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, i)
		}
	}
	return out
}

// meanMinusStdev returns mean(xs) - lambda*pstdev(xs).
func meanMinusStdev(xs []float64, lambda float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) == 1 {
		return mean
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean - lambda*math.Sqrt(ss/float64(len(xs)))
}

// aggregateFit combines per-person fits by the strong rule, in person order.
func (c *FamilyConfig) aggregateFit(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	if c.StrongRule == StrongRuleAvg {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		return sum / float64(len(scores))
	}
	m := scores[0]
	for _, s := range scores[1:] {
		m = math.Min(m, s)
	}
	return m
}

func sortByScoreThenID(s []*ScoredCandidate) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Item.ID < s[j].Item.ID
	})
}

// selectFamily builds a shared slate for two or more people.
//
// Per-person scores use each person's own liked sets with no vector term
// and no preference. The frontier is ranked by mean - lambda*stdev after
// dropping items anyone scores below the floor. Strong items are locked
// first, the rest is filled by rank, then a coverage pass makes sure each
// person has at least one item at or above the coverage threshold.
func (r *ranker) selectFamily(count int, scored []*ScoredCandidate) ([]*ScoredCandidate, *FamilyMeta) {
	fc := &r.cfg.Family
	people := r.gs.People

	all := make([]familyCandidate, len(scored))
	vectors := make([][]float64, len(scored))
	for i, sc := range scored {
		scores := make([]float64, len(people))
		fits := make(map[string]float64, len(people))
		for p, ps := range people {
			res := r.cfg.Scoring.score(sc.Item, r.req.Intent, scoreInput{
				LikedGenres:   ps.LikedGenres,
				LikedCreators: ps.LikedCreators,
			})
			scores[p] = res.Score
			fits[ps.Person.ID] = res.Score
		}
		cp := *sc
		cp.Score = meanMinusStdev(scores, fc.Lambda)
		cp.Fits = fits
		cp.Strong = fc.aggregateFit(scores) >= fc.StrongMinFit
		all[i] = familyCandidate{sc: &cp, scores: scores}
		vectors[i] = scores
	}

	var ranked []*ScoredCandidate
	for _, idx := range paretoFrontier(vectors) {
		floored := false
		for _, s := range all[idx].scores {
			if s < fc.Floor {
				floored = true
				break
			}
		}
		if !floored {
			ranked = append(ranked, all[idx].sc)
		}
	}
	sortByScoreThenID(ranked)

	var strong []familyCandidate
	for _, c := range all {
		if c.sc.Strong && containsCandidate(ranked, c.sc.Item.ID) {
			strong = append(strong, c)
		}
	}
	sort.SliceStable(strong, func(i, j int) bool {
		ai, aj := fc.aggregateFit(strong[i].scores), fc.aggregateFit(strong[j].scores)
		if ai != aj {
			return ai > aj
		}
		if strong[i].sc.Score != strong[j].sc.Score {
			return strong[i].sc.Score > strong[j].sc.Score
		}
		return strong[i].sc.Item.ID < strong[j].sc.Item.ID
	})
	lockN := min(max(0, fc.StrongLockCount), count)

	picked := make([]*ScoredCandidate, 0, count)
	lockedIDs := []string{}
	for _, c := range head(candidatesOf(strong), lockN) {
		picked = append(picked, c)
		lockedIDs = append(lockedIDs, c.Item.ID)
	}
	for _, sc := range ranked {
		if len(picked) >= count {
			break
		}
		if !containsCandidate(picked, sc.Item.ID) {
			picked = append(picked, sc)
		}
	}

	picked = r.coverFamily(count, picked, ranked, all, lockedIDs)
	sortByScoreThenID(picked)

	meta := &FamilyMeta{
		StrongLockedIDs: lockedIDs,
		StrongMinFit:    fc.StrongMinFit,
		StrongRule:      fc.StrongRule,
	}
	if len(lockedIDs) == 0 {
		meta.Warning = &FamilyWarning{Code: WarningNoStrongPick, Message: warningNoStrongPickMessage}
	}
	return picked, meta
}

// coverFamily gives every person at least one item at or above the
// coverage threshold when one exists. The best unpicked ranked item for the
// person is preferred; when none of those meets the threshold, any safe
// candidate that does is used. It is appended when the slate has room and
// otherwise replaces the picked item that person likes least among those
// that are neither strong-locked nor the only cover of another person.
// When no picked item can be released the person stays uncovered.
func (r *ranker) coverFamily(count int, picked, ranked []*ScoredCandidate, all []familyCandidate, locked []string) []*ScoredCandidate {
	if count <= 0 {
		return picked
	}
	threshold := r.cfg.Family.CoverageMinFit
	for _, ps := range r.gs.People {
		pid := ps.Person.ID
		if coverCount(pid, threshold, picked) > 0 {
			continue
		}

		best := bestFor(pid, threshold, picked, ranked)
		if best == nil || best.Fits[pid] < threshold {
			if alt := bestFor(pid, threshold, picked, candidatesOf(all)); alt != nil && alt.Fits[pid] >= threshold {
				best = alt
			}
		}
		if best == nil {
			continue
		}

		if len(picked) < count {
			picked = append(picked, best)
			r.logger.Info().Str("member", pid).Float64("threshold", threshold).
				Str("item_id", best.Item.ID).Float64("fit", best.Fits[pid]).
				Msg("family coverage add")
			continue
		}

		worst := -1
		for i, sc := range picked {
			if !r.releasable(sc, threshold, picked, locked) {
				continue
			}
			if worst < 0 || sc.Fits[pid] < picked[worst].Fits[pid] {
				worst = i
			}
		}
		if worst < 0 {
			r.logger.Info().Str("member", pid).Float64("threshold", threshold).
				Str("item_id", best.Item.ID).
				Msg("family coverage skipped: no releasable item")
			continue
		}
		r.logger.Info().Str("member", pid).Float64("threshold", threshold).
			Str("out_item_id", picked[worst].Item.ID).Float64("out_fit", picked[worst].Fits[pid]).
			Str("in_item_id", best.Item.ID).Float64("in_fit", best.Fits[pid]).
			Msg("family coverage swap")
		picked[worst] = best
	}
	return picked
}

// releasable reports whether sc may leave the slate: it is not a locked
// strong pick and no person depends on it as their only cover.
func (r *ranker) releasable(sc *ScoredCandidate, threshold float64, picked []*ScoredCandidate, locked []string) bool {
	for _, id := range locked {
		if sc.Item.ID == id {
			return false
		}
	}
	for _, ps := range r.gs.People {
		pid := ps.Person.ID
		if sc.Fits[pid] >= threshold && coverCount(pid, threshold, picked) == 1 {
			return false
		}
	}
	return true
}

// coverCount counts picked items a person fits at or above threshold.
func coverCount(pid string, threshold float64, picked []*ScoredCandidate) int {
	n := 0
	for _, sc := range picked {
		if sc.Fits[pid] >= threshold {
			n++
		}
	}
	return n
}

// bestFor returns the unpicked candidate with the highest fit for a person,
// preferring candidates that meet the threshold, then higher shared score,
// then lower ID.
func bestFor(pid string, threshold float64, picked, from []*ScoredCandidate) *ScoredCandidate {
	var best *ScoredCandidate
	better := func(a, b *ScoredCandidate) bool {
		am, bm := a.Fits[pid] >= threshold, b.Fits[pid] >= threshold
		if am != bm {
			return am
		}
		if a.Fits[pid] != b.Fits[pid] {
			return a.Fits[pid] > b.Fits[pid]
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Item.ID < b.Item.ID
	}
	for _, sc := range from {
		if containsCandidate(picked, sc.Item.ID) {
			continue
		}
		if _, ok := sc.Fits[pid]; !ok {
			continue
		}
		if best == nil || better(sc, best) {
			best = sc
		}
	}
	return best
}

func candidatesOf(fcs []familyCandidate) []*ScoredCandidate {
	out := make([]*ScoredCandidate, len(fcs))
	for i := range fcs {
		out[i] = fcs[i].sc
	}
	return out
}

func containsCandidate(s []*ScoredCandidate, id string) bool {
	for _, sc := range s {
		if sc.Item.ID == id {
			return true
		}
	}
	return false
}
