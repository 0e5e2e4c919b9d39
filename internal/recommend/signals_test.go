// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"reflect"
	"testing"
	"time"
)

func TestAggregateSignalsUsesLatestRating(t *testing.T) {
	t.Parallel()

	items := map[string]*Item{
		"x": {ID: "x", Metadata: Metadata{Genres: []string{"horror"}, Creators: []string{"Mike"}}},
		"y": {ID: "y", Metadata: Metadata{Genres: []string{"comedy"}, Creators: []string{"Sam"}}},
	}
	snap := &Snapshot{Ratings: map[string][]RatingEvent{
		"ana": {
			// Out of order on purpose.
			{PersonID: "ana", ItemID: "x", Verdict: VerdictBad, NuanceTags: []string{"too-scary"}, CreatedAt: testEpoch.Add(time.Hour)},
			{PersonID: "ana", ItemID: "x", Verdict: VerdictVeryGood, NuanceTags: []string{"gripping"}, Note: "loved it", CreatedAt: testEpoch},
			{PersonID: "ana", ItemID: "y", Verdict: VerdictVeryGood, CreatedAt: testEpoch},
			{PersonID: "ana", ItemID: "gone", Verdict: VerdictVeryGood, NuanceTags: []string{"ghost"}, CreatedAt: testEpoch},
		},
	}}

	gs := aggregateSignals([]Person{{ID: "ana"}}, snap, items)
	if got := gs.LikedGenres.sorted(); !reflect.DeepEqual(got, []string{"comedy"}) {
		t.Errorf("liked genres = %v, want [comedy]", got)
	}
	if got := gs.LikedCreators.sorted(); !reflect.DeepEqual(got, []string{"Sam"}) {
		t.Errorf("liked creators = %v, want [Sam]", got)
	}
	if got := gs.Tags.sorted(); !reflect.DeepEqual(got, []string{"gripping", "too-scary"}) {
		t.Errorf("tags = %v", got)
	}
	if gs.People[0].Priors["x"] != VerdictBad {
		t.Errorf("prior for x = %v, want BAD", gs.People[0].Priors["x"])
	}
	if _, ok := gs.People[0].Priors["gone"]; ok {
		t.Error("rating of an unknown item became a prior")
	}
	if gs.Notes != "loved it" {
		t.Errorf("notes = %q", gs.Notes)
	}
}

func TestAggregateSignalsBoundariesAndAge(t *testing.T) {
	t.Parallel()

	people := []Person{
		{ID: "a", AgeLimit: intPtr(15), Boundaries: map[string]bool{"gore": true, "spiders": false}},
		{ID: "b", AgeLimit: intPtr(12), Boundaries: map[string]bool{"Needles": true}},
		{ID: "c"},
	}
	gs := aggregateSignals(people, &Snapshot{}, map[string]*Item{})
	if got := gs.Boundaries.sorted(); !reflect.DeepEqual(got, []string{"gore", "needles"}) {
		t.Errorf("boundaries = %v", got)
	}
	if !gs.HasAgeLimit || gs.AgeLimit != 12 {
		t.Errorf("age limit = %d (%v), want 12", gs.AgeLimit, gs.HasAgeLimit)
	}
	if gs.Preference != nil {
		t.Errorf("preference = %+v, want nil", gs.Preference)
	}
}

func TestMergePreferences(t *testing.T) {
	t.Parallel()

	prefs := map[string]PreferenceProfile{
		"a": {
			CreatorsLike: []string{"Jane"},
			Mood:         Mood{Tone: 3, Pacing: 4, Complexity: 2, Humor: 0, Optimism: 1},
			Constraints:  Constraints{EpisodeLengthMax: intPtr(45), AvoidCliffhangers: true},
		},
		"b": {
			CreatorsDislike: []string{"Bob"},
			Mood:            Mood{Tone: 0, Pacing: 1, Complexity: 2, Humor: 3, Optimism: 4},
			Constraints:     Constraints{EpisodeLengthMax: intPtr(30), SeasonsMax: intPtr(2)},
		},
	}
	got := mergePreferences([]Person{{ID: "a"}, {ID: "b"}, {ID: "c"}}, prefs)
	if got == nil {
		t.Fatal("merged preference is nil")
	}
	if want := (Mood{Tone: 1, Pacing: 2, Complexity: 2, Humor: 1, Optimism: 2}); got.Mood != want {
		t.Errorf("mood = %+v, want %+v", got.Mood, want)
	}
	if *got.Constraints.EpisodeLengthMax != 30 || *got.Constraints.SeasonsMax != 2 {
		t.Errorf("constraints = %+v", got.Constraints)
	}
	if !got.Constraints.AvoidCliffhangers || got.Constraints.AvoidLongRunning {
		t.Errorf("boolean constraints = %+v", got.Constraints)
	}
	if !reflect.DeepEqual(got.CreatorsLike, []string{"Jane"}) || !reflect.DeepEqual(got.CreatorsDislike, []string{"Bob"}) {
		t.Errorf("creators = %v / %v", got.CreatorsLike, got.CreatorsDislike)
	}
	if *prefs["a"].Constraints.EpisodeLengthMax != 45 {
		t.Error("merge mutated the input profile")
	}
}

func TestFloorDiv(t *testing.T) {
	t.Parallel()

	tests := []struct{ a, b, want int }{
		{7, 2, 3},
		{-3, 2, -2},
		{4, 2, 2},
		{0, 3, 0},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStringSetOverlapCountsDistinct(t *testing.T) {
	t.Parallel()

	s := newStringSet([]string{"a", "b"})
	if got := s.overlap([]string{"a", "a", "b", "c"}); got != 2 {
		t.Errorf("overlap = %d, want 2", got)
	}
}
