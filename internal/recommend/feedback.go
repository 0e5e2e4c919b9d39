// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/tomtom215/couchside/internal/recommend/embedding"
)

// jitterModulus bounds the hash-derived fraction to 7 decimal digits.
const jitterModulus = 10_000_000

// feedbackInput is the household feedback applied to every candidate.
type feedbackInput struct {
	Tags            stringSet
	Notes           string
	Priors          []Verdict
	HistoryGenres   stringSet
	HistoryCreators stringSet
	Seed            *int64
}

// hash01 maps (id, seed) to [0,1) with BLAKE2b-64. The seed is hashed as
// its decimal string; a nil seed hashes the id alone.
func hash01(id string, seed *int64) float64 {
	h, err := blake2b.New(8, nil)
	if err != nil {
		// Only fails for invalid sizes or keys.
		panic(err)
	}
	h.Write([]byte(id))
	if seed != nil {
		h.Write([]byte(strconv.FormatInt(*seed, 10)))
	}
	n := binary.BigEndian.Uint64(h.Sum(nil))
	return float64(n%jitterModulus) / jitterModulus
}

// noteNudge sums the weights of keywords found in notes, clamped.
func (w *FeedbackWeights) noteNudge(notes string) float64 {
	text := strings.ToLower(notes)
	if text == "" {
		return 0
	}
	nudge := 0.0
	for _, kw := range w.NoteKeywords {
		if kw.Keyword != "" && strings.Contains(text, strings.ToLower(kw.Keyword)) {
			nudge += kw.Weight
		}
	}
	return math.Max(w.NoteMin, math.Min(w.NoteMax, nudge))
}

// apply composes the feedback terms onto a base score:
//
//	score = max(0, base*(1+prior)*(1+tag+note+history)) + jitter
func (w *FeedbackWeights) apply(item *Item, base float64, in feedbackInput) (float64, FitFactors) {
	ff := FitFactors{Base: base}

	for _, v := range in.Priors {
		switch v {
		case VerdictVeryGood:
			ff.RatingPrior += w.RatingVeryGood
		case VerdictAcceptable:
			ff.RatingPrior += w.RatingAcceptable
		case VerdictBad:
			ff.RatingPrior -= w.RatingBad
		}
	}

	ff.TagNudge = float64(in.Tags.overlap(item.Flags)) * w.TagLikeBonus
	ff.NoteNudge = w.noteNudge(in.Notes)

	if in.HistoryCreators.overlap(item.Metadata.Creators) > 0 || in.HistoryGenres.overlap(item.Metadata.Genres) > 0 {
		ff.HistoryAdj = w.HistoryAdjBoost
	}

	multiplier := (1 + ff.RatingPrior) * (1 + ff.TagNudge + ff.NoteNudge + ff.HistoryAdj)
	score := math.Max(0, base*multiplier)
	score += w.JitterScale * hash01(item.ID, in.Seed)
	return score, ff
}

// bonus biases toward items like the anchor. Vector similarity is
// used when both vectors carry a direction; otherwise genre overlap and
// episode-length proximity.
func (c *AnchorConfig) bonus(sw *ScoringWeights, anchor, item *Item, anchorVec, itemVec embedding.Vector) float64 {
	if len(anchorVec) > 0 && len(itemVec) > 0 && !embedding.IsZero(anchorVec) && !embedding.IsZero(itemVec) {
		return c.VectorWeight * embedding.Similarity(anchorVec, itemVec)
	}
	g := float64(newStringSet(anchor.Metadata.Genres).overlap(item.Metadata.Genres))
	dl := math.Abs(float64(sw.episodeLength(item) - sw.episodeLength(anchor)))
	return math.Max(0, math.Min(c.Cap, c.GenreWeight*g-c.EpisodeDeltaWeight*dl))
}

// withReason prepends "Similar to <title>" and caps the list.
func (c *AnchorConfig) withReason(title string, reasons []string) []string {
	out := make([]string, 0, len(reasons)+1)
	out = append(out, "Similar to "+title)
	out = append(out, reasons...)
	if c.MaxReasons > 0 && len(out) > c.MaxReasons {
		out = out[:c.MaxReasons]
	}
	return out
}
