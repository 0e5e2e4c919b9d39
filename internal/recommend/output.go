// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"math"
	"time"

	"github.com/tomtom215/couchside/internal/rationale"
)

// Prediction labels.
const (
	LabelBad        = "BAD"
	LabelAcceptable = "ACCEPTABLE"
	LabelVeryGood   = "VERY_GOOD"
)

// Label maps a score to a prediction label: < 0.5 BAD, < 1.0 ACCEPTABLE.
func Label(score float64) string {
	switch {
	case score < 0.5:
		return LabelBad
	case score < 1.0:
		return LabelAcceptable
	default:
		return LabelVeryGood
	}
}

// Confidence grows with the distance from the nearest label boundary,
// clamped to [0.3, 0.95] and rounded to two decimals.
func Confidence(score float64) float64 {
	margin := math.Abs(score - 0.5)
	if Label(score) != LabelBad {
		margin = math.Min(margin, math.Abs(score-1.0))
	}
	return round2(math.Max(0.3, math.Min(0.95, 0.5+margin)))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// FreshestOffer returns the most recently checked offer. Offers without a
// timestamp count as oldest; ties keep the first.
func FreshestOffer(offers []Offer) (Offer, bool) {
	if len(offers) == 0 {
		return Offer{}, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.UpdatedAt.After(best.UpdatedAt) {
			best = o
		}
	}
	return best, true
}

// availabilityMeta describes the freshest offer. Unknown timestamps are stale.
func availabilityMeta(offers []Offer, now time.Time, staleAfter time.Duration) *AvailabilityMeta {
	o, ok := FreshestOffer(offers)
	if !ok {
		return nil
	}
	meta := &AvailabilityMeta{
		Provider:         o.Provider,
		Kind:             o.Kind,
		Stale:            true,
		Season:           o.Season,
		SeasonConsistent: o.Season > 0,
	}
	if !o.UpdatedAt.IsZero() {
		ts := o.UpdatedAt.UTC()
		meta.AsOf = &ts
		meta.Stale = now.Sub(o.UpdatedAt) > staleAfter
	}
	return meta
}

// explain turns the picked candidates into slate items.
func (r *ranker) explain(picked []*ScoredCandidate) ([]RankedItem, int) {
	out := make([]RankedItem, 0, len(picked))
	fallbacks := 0
	for _, sc := range picked {
		item := sc.Item

		text, fell := r.rationale.Explain(rationale.Input{
			Genres:      item.Metadata.Genres,
			Flags:       item.Flags,
			RatingPrior: sc.Factors.RatingPrior,
			TagNudge:    sc.Factors.TagNudge,
			HistoryAdj:  sc.Factors.HistoryAdj,
			Substitute:  sc.Substitute,
		})
		if fell {
			fallbacks++
		}

		avail := availabilityMeta(item.Offers, r.now, r.cfg.OffersStaleAfter)
		if avail != nil {
			text = r.rationale.WithSeasonHint(text, avail.Season, avail.Provider)
		}

		where := make([]WatchOption, 0, len(item.Offers))
		for _, o := range item.Offers {
			where = append(where, WatchOption{Provider: o.Provider, Kind: o.Kind})
		}

		var fits []PersonFit
		if sc.Fits != nil {
			fits = make([]PersonFit, 0, len(r.gs.People))
			for _, ps := range r.gs.People {
				if f, ok := sc.Fits[ps.Person.ID]; ok {
					fits = append(fits, PersonFit{PersonID: ps.Person.ID, Name: ps.Person.Name, Score: f})
				}
			}
		}

		out = append(out, RankedItem{
			ID:           item.ID,
			Title:        item.Title,
			Year:         item.Year,
			Score:        sc.Score,
			WhereToWatch: where,
			Rationale:    text,
			Warnings:     nonNil(item.Warnings),
			Flags:        nonNil(item.Flags),
			Prediction: Prediction{
				Label:      Label(sc.Score),
				Confidence: Confidence(sc.Score),
				Novelty:    round2(sc.Novelty),
			},
			SimilarBecause: nonNil(rationale.Evidence(item.Metadata.Genres, item.Metadata.Creators, r.gs.LikedGenres, r.gs.LikedCreators)),
			Genres:         nonNil(firstStrings(item.Metadata.Genres, 3)),
			Creators:       nonNil(firstStrings(item.Metadata.Creators, 2)),
			AURating:       item.Metadata.AURating,
			AgeRating:      item.Metadata.AgeRating,
			FitByPerson:    fits,
			Availability:   avail,
			FamilyStrong:   sc.Strong,
			Substitute:     sc.Substitute,
		})
	}
	return out, fallbacks
}

func firstStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
