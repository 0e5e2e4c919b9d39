// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package rationale

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text    string
		spoiler bool
	}{
		{"A grounded drama; matches your liked tags", false},
		{"The hero DIES in the end", true},
		{"Includes a surprise wedding", true},
		{"Best watched through Season 3", true},
		{"Wait for the post-credits scene", true},
		{"She returns from the dead", true},
		{"A classic whodunnit", true},
		{"A deathly quiet town", false},
		{"", false},
	}
	for _, tt := range tests {
		err := Lint(tt.text)
		if got := errors.Is(err, ErrSpoiler); got != tt.spoiler {
			t.Errorf("Lint(%q) spoiler = %v, want %v (err %v)", tt.text, got, tt.spoiler, err)
		}
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	b := NewBuilder(180)
	tests := []struct {
		name string
		in   Input
		want string
	}{
		{
			name: "tone from genre and all reasons",
			in:   Input{Genres: []string{"drama", "legal"}, RatingPrior: 0.25, TagNudge: 0.08, HistoryAdj: 0.06},
			want: "A grounded drama; you rated similar shows highly, matches your liked tags, near your recent watches",
		},
		{
			name: "tone from flag",
			in:   Input{Genres: []string{"mystery"}, Flags: []string{"cozy", "thriller"}},
			want: "A tense mystery; " + DefaultReason,
		},
		{
			name: "no genres",
			in:   Input{},
			want: "A series; " + DefaultReason,
		},
		{
			name: "negative prior gives no reason",
			in:   Input{Genres: []string{"comedy"}, RatingPrior: -0.4, TagNudge: 0.08},
			want: "A funny comedy; matches your liked tags",
		},
		{
			name: "substitute marker",
			in:   Input{Genres: []string{"comedy"}, Substitute: true},
			want: SubstitutePrefix + "A funny comedy; " + DefaultReason,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := b.Build(tt.in)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got != tt.want {
				t.Errorf("Build = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTruncatesAndTrims(t *testing.T) {
	t.Parallel()

	b := NewBuilder(20)
	got, err := b.Build(Input{Genres: []string{"comedy"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if utf8.RuneCountInString(got) > 20 {
		t.Errorf("len = %d, want <= 20", utf8.RuneCountInString(got))
	}
	if strings.HasSuffix(got, " ") {
		t.Errorf("rationale %q has trailing space", got)
	}
}

func TestExplainFallsBackOnSpoiler(t *testing.T) {
	t.Parallel()

	b := NewBuilder(180)
	got, fell := b.Explain(Input{Genres: []string{"finale"}})
	if !fell || got != Fallback {
		t.Errorf("Explain = %q, %v; want fallback", got, fell)
	}
	got, fell = b.Explain(Input{Genres: []string{"drama"}})
	if fell || got == Fallback {
		t.Errorf("Explain = %q, %v; want built rationale", got, fell)
	}
	got, _ = NewBuilder(20).Explain(Input{Genres: []string{"finale"}})
	if utf8.RuneCountInString(got) > 20 {
		t.Errorf("fallback %q exceeds the cap", got)
	}
}

func TestWithSeasonHint(t *testing.T) {
	t.Parallel()

	b := NewBuilder(180)
	if got := b.WithSeasonHint("A drama", 2, "Stan"); got != "A drama (showing S2 on Stan)" {
		t.Errorf("WithSeasonHint = %q", got)
	}
	if got := b.WithSeasonHint("A drama", 0, "Stan"); got != "A drama" {
		t.Errorf("unknown season should not add a hint, got %q", got)
	}
	if got := NewBuilder(20).WithSeasonHint("A drama", 2, "Stan"); got != "A drama" {
		t.Errorf("hint beyond the cap should be dropped, got %q", got)
	}
}

func TestEvidence(t *testing.T) {
	t.Parallel()

	liked := func(vals ...string) map[string]struct{} {
		m := make(map[string]struct{})
		for _, v := range vals {
			m[v] = struct{}{}
		}
		return m
	}

	got := Evidence(
		[]string{"mystery", "cozy", "drama"},
		[]string{"Zed", "Amy", "Bo"},
		liked("drama", "cozy", "mystery"),
		liked("Zed", "Amy", "Bo"),
	)
	want := []string{"From creator(s) Amy, Bo", "Shares your taste for cozy, drama"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Evidence = %v, want %v", got, want)
	}
	if got := Evidence([]string{"x"}, nil, liked("y"), nil); len(got) != 0 {
		t.Errorf("Evidence without overlap = %v, want empty", got)
	}
}
