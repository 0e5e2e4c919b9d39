// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import "math"

// Reasons collected by the scorer.
const (
	reasonCreatorEnjoyed = "From a creator you’ve enjoyed"
	reasonGenreMatch     = "Matches your preferred tones/genres"
	reasonShortFit       = "Short episodes fit ‘short tonight’"
	reasonTooLong        = "Longer than your preferred episode length"
	reasonTooManySeasons = "More seasons than you prefer"
	reasonCreatorLiked   = "From a creator you like"
)

// Mood knob magnitudes. Knobs run 0..4; >=3 is high, <=1 is low.
const (
	moodHigh = 3
	moodLow  = 1

	moodHumorBonus       = 0.10
	moodHumorPenalty     = 0.05
	moodOptimismBonus    = 0.10
	moodOptimismPenalty  = 0.05
	moodToneBonus        = 0.08
	moodPacingBonus      = 0.08
	moodPacingSlowMinLen = 40
	moodComplexityDelta  = 0.06
)

// scoreInput is what a score depends on besides the item.
type scoreInput struct {
	LikedGenres   stringSet
	LikedCreators stringSet

	VecSim    float64
	HasVecSim bool

	// Preference is optional.
	Preference *PreferenceProfile
}

// scoreResult is a single-person score.
type scoreResult struct {
	Score   float64
	Reasons []string
	Novelty float64
}

// familiarity is min(1, 0.15*genreOverlap + 0.3*creatorOverlap) with the
// default weights.
func (w *ScoringWeights) familiarity(item *Item, genres, creators stringSet) float64 {
	g := float64(genres.overlap(item.Metadata.Genres))
	c := float64(creators.overlap(item.Metadata.Creators))
	return math.Min(1, w.FamiliarityGenre*g+w.FamiliarityCreator*c)
}

// score computes the single-person fit and novelty of item.
func (w *ScoringWeights) score(item *Item, intent Intent, in scoreInput) scoreResult {
	var reasons []string

	gOverlap := in.LikedGenres.overlap(item.Metadata.Genres)
	cOverlap := in.LikedCreators.overlap(item.Metadata.Creators)
	base := w.GenreOverlap*float64(gOverlap) + w.CreatorOverlap*float64(cOverlap)
	if in.HasVecSim {
		base += w.VectorSim * in.VecSim
	}
	if cOverlap > 0 {
		reasons = append(reasons, reasonCreatorEnjoyed)
	}
	if gOverlap > 0 {
		reasons = append(reasons, reasonGenreMatch)
	}

	fam := w.familiarity(item, in.LikedGenres, in.LikedCreators)
	epLen := w.episodeLength(item)

	bonus := 0.0
	switch intent {
	case IntentShortTonight:
		if epLen <= w.ShortEpisodeMax {
			bonus += w.ShortBonus
			reasons = append(reasons, reasonShortFit)
		} else {
			bonus -= w.ShortPenalty
		}
	case IntentWeekendBinge:
		if seasons(item) >= w.BingeSeasonsMin {
			bonus += w.BingeSeasonsBonus
		}
		if epLen >= w.BingeEpisodeMin {
			bonus += w.BingeEpisodeBonus
		}
	case IntentComfort:
		bonus -= math.Min(w.ComfortPenaltyCap, w.ComfortNoveltyRate*(1-fam))
	case IntentSurprise:
		bonus += w.SurpriseBonus
	}

	if in.Preference != nil {
		b, r := w.preferenceBonus(item, epLen, in.Preference)
		bonus += b
		reasons = append(reasons, r...)
	}

	var novelty float64
	if in.HasVecSim {
		novelty = clamp01(0.5*(1-fam) + 0.5*(1-in.VecSim))
	} else {
		novelty = clamp01(1 - fam)
	}

	return scoreResult{
		Score:   base + bonus + w.AvailabilityBonus,
		Reasons: reasons,
		Novelty: novelty,
	}
}

// preferenceBonus applies constraint, creator and mood adjustments.
func (w *ScoringWeights) preferenceBonus(item *Item, epLen int, pref *PreferenceProfile) (float64, []string) {
	var reasons []string
	bonus := 0.0
	n := seasons(item)
	cons := pref.Constraints
	flags := newStringSet(item.Flags)
	genres := newStringSet(item.Metadata.Genres)

	if cons.EpisodeLengthMax != nil {
		if maxLen := *cons.EpisodeLengthMax; epLen <= maxLen {
			bonus += w.EpisodeWithinBonus
		} else {
			bonus -= math.Min(w.EpisodeOverCap, w.EpisodeOverPerMinute*float64(epLen-maxLen))
			reasons = append(reasons, reasonTooLong)
		}
	}
	if cons.SeasonsMax != nil {
		if maxSeasons := *cons.SeasonsMax; n <= maxSeasons {
			bonus += w.SeasonsWithinBonus
		} else {
			bonus -= math.Min(w.SeasonsOverCap, w.SeasonsOverPerSeason*float64(n-maxSeasons))
			reasons = append(reasons, reasonTooManySeasons)
		}
	}
	if cons.AvoidCliffhangers && (flags.has("cliffhanger") || newStringSet(item.Warnings).has("cliffhanger")) {
		bonus -= w.CliffhangerPenalty
	}
	if cons.AvoidLongRunning {
		if n >= w.LongRunningSeasons {
			bonus -= w.LongRunningSeasonsPenalty
		}
		if epLen >= w.LongRunningEpisode {
			bonus -= w.LongRunningEpisodePenalty
		}
		if flags.has("slow") {
			bonus -= w.SlowPenalty
		}
	}

	if newStringSet(pref.CreatorsLike).overlap(item.Metadata.Creators) > 0 {
		bonus += w.CreatorLikeBonus
		reasons = append(reasons, reasonCreatorLiked)
	}
	if newStringSet(pref.CreatorsDislike).overlap(item.Metadata.Creators) > 0 {
		bonus -= w.CreatorDislikePenalty
	}

	m := pref.Mood
	funny := genres.has("comedy") || flags.has("funny")
	if m.Humor >= moodHigh && funny {
		bonus += moodHumorBonus
	}
	if m.Humor <= moodLow && funny {
		bonus -= moodHumorPenalty
	}
	if m.Optimism >= moodHigh && (genres.has("optimistic") || flags.has("optimistic") || flags.has("hopeful")) {
		bonus += moodOptimismBonus
	}
	if m.Optimism <= moodLow && (genres.has("optimistic") || flags.has("hopeful")) {
		bonus -= moodOptimismPenalty
	}
	if m.Tone >= moodHigh && (genres.has("cozy") || flags.has("warm")) {
		bonus += moodToneBonus
	}
	if m.Pacing <= moodLow && epLen >= moodPacingSlowMinLen {
		bonus += moodPacingBonus
	}
	if m.Pacing >= moodHigh && epLen <= w.ShortEpisodeMax {
		bonus += moodPacingBonus
	}
	cerebral := genres.has("prestige") || genres.has("mystery")
	if m.Complexity >= moodHigh && cerebral {
		bonus += moodComplexityDelta
	}
	if m.Complexity <= moodLow && cerebral {
		bonus -= moodComplexityDelta
	}
	return bonus, reasons
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
