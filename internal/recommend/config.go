// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the ranking weights and thresholds.
type Config struct {
	Scoring      ScoringWeights     `json:"scoring"`
	Feedback     FeedbackWeights    `json:"feedback"`
	Allocation   AllocationConfig   `json:"allocation"`
	Family       FamilyConfig       `json:"family"`
	Substitution SubstitutionConfig `json:"substitution"`
	Anchor       AnchorConfig       `json:"anchor"`

	// DefaultCount is the slate size when a request does not set one.
	DefaultCount int `json:"default_count"`

	// MaxCount caps the slate size.
	MaxCount int `json:"max_count"`

	// RationaleMaxChars caps rationale length.
	RationaleMaxChars int `json:"rationale_max_chars"`

	// OffersStaleAfter marks offers older than this as stale.
	OffersStaleAfter time.Duration `json:"offers_stale_after"`

	// VectorSearchMinItems is the stored item-vector count at which the
	// candidate walk starts from the person's nearest neighbors.
	VectorSearchMinItems int `json:"vector_search_min_items"`

	// NeighborLimit is how many nearest neighbors lead the candidate walk.
	NeighborLimit int `json:"neighbor_limit"`

	// HistoryLimit is how many recent external watches feed adjacency.
	HistoryLimit int `json:"history_limit"`
}

// ScoringWeights are the single-person scoring weights.
type ScoringWeights struct {
	GenreOverlap   float64 `json:"genre_overlap"`
	CreatorOverlap float64 `json:"creator_overlap"`
	VectorSim      float64 `json:"vector_sim"`

	FamiliarityGenre   float64 `json:"familiarity_genre"`
	FamiliarityCreator float64 `json:"familiarity_creator"`

	// DefaultEpisodeLength is assumed when an item has no episode length.
	DefaultEpisodeLength int `json:"default_episode_length"`

	// ShortEpisodeMax is the longest episode that fits short_tonight.
	ShortEpisodeMax int     `json:"short_episode_max"`
	ShortBonus      float64 `json:"short_bonus"`
	ShortPenalty    float64 `json:"short_penalty"`

	BingeSeasonsMin    int     `json:"binge_seasons_min"`
	BingeSeasonsBonus  float64 `json:"binge_seasons_bonus"`
	BingeEpisodeMin    int     `json:"binge_episode_min"`
	BingeEpisodeBonus  float64 `json:"binge_episode_bonus"`
	ComfortPenaltyCap  float64 `json:"comfort_penalty_cap"`
	ComfortNoveltyRate float64 `json:"comfort_novelty_rate"`
	SurpriseBonus      float64 `json:"surprise_bonus"`

	EpisodeWithinBonus   float64 `json:"episode_within_bonus"`
	EpisodeOverPerMinute float64 `json:"episode_over_per_minute"`
	EpisodeOverCap       float64 `json:"episode_over_cap"`
	SeasonsWithinBonus   float64 `json:"seasons_within_bonus"`
	SeasonsOverPerSeason float64 `json:"seasons_over_per_season"`
	SeasonsOverCap       float64 `json:"seasons_over_cap"`

	CliffhangerPenalty        float64 `json:"cliffhanger_penalty"`
	LongRunningSeasons        int     `json:"long_running_seasons"`
	LongRunningSeasonsPenalty float64 `json:"long_running_seasons_penalty"`
	LongRunningEpisode        int     `json:"long_running_episode"`
	LongRunningEpisodePenalty float64 `json:"long_running_episode_penalty"`
	SlowPenalty               float64 `json:"slow_penalty"`

	CreatorLikeBonus      float64 `json:"creator_like_bonus"`
	CreatorDislikePenalty float64 `json:"creator_dislike_penalty"`

	AvailabilityBonus float64 `json:"availability_bonus"`
}

// NoteKeyword is a note phrase and the nudge it contributes.
type NoteKeyword struct {
	Keyword string  `json:"keyword"`
	Weight  float64 `json:"weight"`
}

// FeedbackWeights are the feedback compositor weights.
type FeedbackWeights struct {
	RatingVeryGood   float64 `json:"rating_very_good"`
	RatingAcceptable float64 `json:"rating_acceptable"`
	RatingBad        float64 `json:"rating_bad"`
	TagLikeBonus     float64 `json:"tag_like_bonus"`
	HistoryAdjBoost  float64 `json:"history_adj_boost"`

	// NoteKeywords are summed in order, then clamped to [NoteMin, NoteMax].
	NoteKeywords []NoteKeyword `json:"note_keywords"`
	NoteMin      float64       `json:"note_min"`
	NoteMax      float64       `json:"note_max"`

	// JitterScale bounds the tie-break jitter to [0, JitterScale).
	JitterScale float64 `json:"jitter_scale"`
}

// AllocationConfig configures the comfort/discovery split.
type AllocationConfig struct {
	NoveltyThreshold         float64 `json:"novelty_threshold"`
	SurpriseNoveltyThreshold float64 `json:"surprise_novelty_threshold"`
	ComfortDiscoveryCap      float64 `json:"comfort_discovery_cap"`
	SurpriseComfortShare     float64 `json:"surprise_comfort_share"`
	DefaultComfortShare      float64 `json:"default_comfort_share"`
}

// Strong-pick aggregation rules.
const (
	StrongRuleMin = "min"
	StrongRuleAvg = "avg"
)

// FamilyConfig configures the shared-slate selector.
type FamilyConfig struct {
	// Lambda weights the per-person standard deviation penalty.
	Lambda float64 `json:"lambda"`

	// Floor drops frontier items any person scores below.
	Floor float64 `json:"floor"`

	CoverageMinFit  float64 `json:"coverage_min_fit"`
	StrongMinFit    float64 `json:"strong_min_fit"`
	StrongRule      string  `json:"strong_rule"`
	StrongLockCount int     `json:"strong_lock_count"`
}

// SubstitutionConfig configures boundary-safe substitution.
type SubstitutionConfig struct {
	MaxViolators       int     `json:"max_violators"`
	EpisodeDeltaWeight float64 `json:"episode_delta_weight"`
	ScoreBonus         float64 `json:"score_bonus"`
	Marker             string  `json:"marker"`
}

// AnchorConfig configures the "more like this" bias.
type AnchorConfig struct {
	VectorWeight       float64 `json:"vector_weight"`
	GenreWeight        float64 `json:"genre_weight"`
	EpisodeDeltaWeight float64 `json:"episode_delta_weight"`
	Cap                float64 `json:"cap"`
	MaxReasons         int     `json:"max_reasons"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringWeights{
			GenreOverlap:              0.2,
			CreatorOverlap:            0.5,
			VectorSim:                 0.6,
			FamiliarityGenre:          0.15,
			FamiliarityCreator:        0.3,
			DefaultEpisodeLength:      60,
			ShortEpisodeMax:           35,
			ShortBonus:                0.3,
			ShortPenalty:              0.5,
			BingeSeasonsMin:           2,
			BingeSeasonsBonus:         0.3,
			BingeEpisodeMin:           40,
			BingeEpisodeBonus:         0.15,
			ComfortPenaltyCap:         0.2,
			ComfortNoveltyRate:        0.5,
			SurpriseBonus:             0.2,
			EpisodeWithinBonus:        0.1,
			EpisodeOverPerMinute:      0.01,
			EpisodeOverCap:            0.3,
			SeasonsWithinBonus:        0.05,
			SeasonsOverPerSeason:      0.05,
			SeasonsOverCap:            0.25,
			CliffhangerPenalty:        0.2,
			LongRunningSeasons:        6,
			LongRunningSeasonsPenalty: 0.1,
			LongRunningEpisode:        55,
			LongRunningEpisodePenalty: 0.1,
			SlowPenalty:               0.08,
			CreatorLikeBonus:          0.2,
			CreatorDislikePenalty:     0.3,
			AvailabilityBonus:         0.1,
		},
		Feedback: FeedbackWeights{
			RatingVeryGood:   0.25,
			RatingAcceptable: 0.05,
			RatingBad:        0.40,
			TagLikeBonus:     0.08,
			HistoryAdjBoost:  0.06,
			NoteKeywords: []NoteKeyword{
				{Keyword: "dnf", Weight: -0.25},
				{Keyword: "too dark", Weight: -0.18},
				{Keyword: "too slow", Weight: -0.12},
				{Keyword: "boring", Weight: -0.20},
				{Keyword: "cozy", Weight: 0.10},
				{Keyword: "light", Weight: 0.08},
			},
			NoteMin:     -0.35,
			NoteMax:     0.25,
			JitterScale: 1e-7,
		},
		Allocation: AllocationConfig{
			NoveltyThreshold:         0.6,
			SurpriseNoveltyThreshold: 0.4,
			ComfortDiscoveryCap:      0.1,
			SurpriseComfortShare:     0.4,
			DefaultComfortShare:      0.7,
		},
		Family: FamilyConfig{
			Lambda:          0.5,
			Floor:           0.2,
			CoverageMinFit:  0.6,
			StrongMinFit:    0.78,
			StrongRule:      StrongRuleMin,
			StrongLockCount: 1,
		},
		Substitution: SubstitutionConfig{
			MaxViolators:       2,
			EpisodeDeltaWeight: 0.02,
			ScoreBonus:         0.05,
			Marker:             "Boundary-safe alternative",
		},
		Anchor: AnchorConfig{
			VectorWeight:       0.25,
			GenreWeight:        0.05,
			EpisodeDeltaWeight: 0.005,
			Cap:                0.25,
			MaxReasons:         3,
		},
		DefaultCount:         6,
		MaxCount:             50,
		RationaleMaxChars:    180,
		OffersStaleAfter:     7 * 24 * time.Hour,
		VectorSearchMinItems: 100,
		NeighborLimit:        400,
		HistoryLimit:         50,
	}
}

// Validate checks the configuration for values the pipeline cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.DefaultCount < 1 {
		errs = append(errs, errors.New("default_count must be at least 1"))
	}
	if c.MaxCount < c.DefaultCount {
		errs = append(errs, fmt.Errorf("max_count %d is below default_count %d", c.MaxCount, c.DefaultCount))
	}
	if c.RationaleMaxChars < 20 {
		errs = append(errs, errors.New("rationale_max_chars must be at least 20"))
	}
	if c.Feedback.NoteMin > c.Feedback.NoteMax {
		errs = append(errs, errors.New("feedback note_min exceeds note_max"))
	}
	if c.Feedback.JitterScale < 0 || c.Feedback.JitterScale > 1e-6 {
		errs = append(errs, errors.New("feedback jitter_scale must be within [0, 1e-6]"))
	}
	if t := c.Allocation.NoveltyThreshold; t < 0 || t > 1 {
		errs = append(errs, errors.New("allocation novelty_threshold must be within [0,1]"))
	}
	if t := c.Allocation.SurpriseNoveltyThreshold; t < 0 || t > 1 {
		errs = append(errs, errors.New("allocation surprise_novelty_threshold must be within [0,1]"))
	}
	for _, s := range []float64{c.Allocation.ComfortDiscoveryCap, c.Allocation.SurpriseComfortShare, c.Allocation.DefaultComfortShare} {
		if s < 0 || s > 1 {
			errs = append(errs, errors.New("allocation shares must be within [0,1]"))
			break
		}
	}
	if c.Family.StrongRule != StrongRuleMin && c.Family.StrongRule != StrongRuleAvg {
		errs = append(errs, fmt.Errorf("family strong_rule %q must be %q or %q", c.Family.StrongRule, StrongRuleMin, StrongRuleAvg))
	}
	if c.Family.StrongLockCount < 0 {
		errs = append(errs, errors.New("family strong_lock_count must not be negative"))
	}
	if c.Substitution.MaxViolators < 0 {
		errs = append(errs, errors.New("substitution max_violators must not be negative"))
	}
	if c.Scoring.ShortEpisodeMax <= 0 || c.Scoring.DefaultEpisodeLength <= 0 {
		errs = append(errs, errors.New("scoring episode lengths must be positive"))
	}
	if c.OffersStaleAfter <= 0 {
		errs = append(errs, errors.New("offers_stale_after must be positive"))
	}
	return errors.Join(errs...)
}
