// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"sort"
	"strings"
)

// stringSet is a set of tags, genres or creators.
type stringSet map[string]struct{}

func newStringSet(groups ...[]string) stringSet {
	s := make(stringSet)
	for _, g := range groups {
		s.add(g...)
	}
	return s
}

func (s stringSet) add(vals ...string) {
	for _, v := range vals {
		if v != "" {
			s[v] = struct{}{}
		}
	}
}

func (s stringSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

// overlap counts the distinct values of vals present in s.
func (s stringSet) overlap(vals []string) int {
	if len(s) == 0 || len(vals) == 0 {
		return 0
	}
	n := 0
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if s.has(v) {
			n++
		}
	}
	return n
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// personSignals are the taste signals of one person.
type personSignals struct {
	Person        Person
	LikedGenres   stringSet
	LikedCreators stringSet
	Tags          stringSet
	LastNote      string
	Priors        map[string]Verdict
}

// groupSignals combine the signals of everyone sharing a request.
type groupSignals struct {
	People []personSignals

	LikedGenres   stringSet
	LikedCreators stringSet
	Tags          stringSet

	// Notes are the latest notes of each person joined by newlines.
	Notes string

	// Boundaries holds every warning key any person excludes, lower-cased.
	Boundaries stringSet

	AgeLimit    int
	HasAgeLimit bool

	// Preference is the merged preference, nil when nobody has one.
	Preference *PreferenceProfile

	HistoryGenres   stringSet
	HistoryCreators stringSet
}

// oldestFirst returns a copy of ratings sorted by creation time, keeping
// input order for equal timestamps.
func oldestFirst(ratings []RatingEvent) []RatingEvent {
	out := make([]RatingEvent, len(ratings))
	copy(out, ratings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// latestRatings returns the latest rating per item, keyed by item ID.
// Ratings must be sorted oldest first.
func latestRatings(ratings []RatingEvent) map[string]RatingEvent {
	out := make(map[string]RatingEvent, len(ratings))
	for _, r := range ratings {
		out[r.ItemID] = r
	}
	return out
}

func aggregatePerson(p Person, ratings []RatingEvent, items map[string]*Item) personSignals {
	ps := personSignals{
		Person:        p,
		LikedGenres:   make(stringSet),
		LikedCreators: make(stringSet),
		Tags:          make(stringSet),
		Priors:        make(map[string]Verdict),
	}
	ratings = oldestFirst(ratings)
	for _, r := range ratings {
		if _, ok := items[r.ItemID]; !ok {
			continue
		}
		ps.Tags.add(r.NuanceTags...)
		if strings.TrimSpace(r.Note) != "" {
			ps.LastNote = r.Note
		}
	}
	for id, r := range latestRatings(ratings) {
		item, ok := items[id]
		if !ok {
			continue
		}
		ps.Priors[id] = r.Verdict
		if r.Verdict == VerdictVeryGood {
			ps.LikedGenres.add(item.Metadata.Genres...)
			ps.LikedCreators.add(item.Metadata.Creators...)
		}
	}
	return ps
}

// aggregateSignals derives the per-person and group signals for a request.
func aggregateSignals(people []Person, snap *Snapshot, items map[string]*Item) *groupSignals {
	gs := &groupSignals{
		LikedGenres:     make(stringSet),
		LikedCreators:   make(stringSet),
		Tags:            make(stringSet),
		Boundaries:      make(stringSet),
		HistoryGenres:   make(stringSet),
		HistoryCreators: make(stringSet),
	}

	var notes []string
	for _, p := range people {
		ps := aggregatePerson(p, snap.Ratings[p.ID], items)
		gs.People = append(gs.People, ps)

		for g := range ps.LikedGenres {
			gs.LikedGenres.add(g)
		}
		for c := range ps.LikedCreators {
			gs.LikedCreators.add(c)
		}
		for t := range ps.Tags {
			gs.Tags.add(t)
		}
		if ps.LastNote != "" {
			notes = append(notes, ps.LastNote)
		}
		for k, excluded := range p.Boundaries {
			if excluded {
				gs.Boundaries.add(strings.ToLower(strings.TrimSpace(k)))
			}
		}
		if p.AgeLimit != nil && (!gs.HasAgeLimit || *p.AgeLimit < gs.AgeLimit) {
			gs.AgeLimit = *p.AgeLimit
			gs.HasAgeLimit = true
		}
	}
	gs.Notes = strings.Join(notes, "\n")
	gs.Preference = mergePreferences(people, snap.Preferences)

	for _, h := range snap.History {
		gs.HistoryGenres.add(h.Genres...)
		gs.HistoryCreators.add(h.Creators...)
	}
	return gs
}

// mergePreferences combines the stored preferences of people, in request
// order. Mood knobs average with floor, numeric constraints take the
// minimum, boolean constraints take the OR.
func mergePreferences(people []Person, prefs map[string]PreferenceProfile) *PreferenceProfile {
	likes := make(stringSet)
	dislikes := make(stringSet)
	var sum Mood
	var count int
	var merged Constraints

	for _, p := range people {
		pref, ok := prefs[p.ID]
		if !ok {
			continue
		}
		count++
		likes.add(pref.CreatorsLike...)
		dislikes.add(pref.CreatorsDislike...)

		sum.Tone += pref.Mood.Tone
		sum.Pacing += pref.Mood.Pacing
		sum.Complexity += pref.Mood.Complexity
		sum.Humor += pref.Mood.Humor
		sum.Optimism += pref.Mood.Optimism

		c := pref.Constraints
		merged.EpisodeLengthMax = minIntPtr(merged.EpisodeLengthMax, c.EpisodeLengthMax)
		merged.SeasonsMax = minIntPtr(merged.SeasonsMax, c.SeasonsMax)
		merged.AvoidCliffhangers = merged.AvoidCliffhangers || c.AvoidCliffhangers
		merged.AvoidLongRunning = merged.AvoidLongRunning || c.AvoidLongRunning
	}
	if count == 0 {
		return nil
	}
	return &PreferenceProfile{
		CreatorsLike:    likes.sorted(),
		CreatorsDislike: dislikes.sorted(),
		Mood: Mood{
			Tone:       floorDiv(sum.Tone, count),
			Pacing:     floorDiv(sum.Pacing, count),
			Complexity: floorDiv(sum.Complexity, count),
			Humor:      floorDiv(sum.Humor, count),
			Optimism:   floorDiv(sum.Optimism, count),
		},
		Constraints: merged,
	}
}

func minIntPtr(cur, next *int) *int {
	if next == nil {
		return cur
	}
	if cur == nil || *next < *cur {
		v := *next
		return &v
	}
	return cur
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
