// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package embedding

import (
	"math"
	"reflect"
	"testing"
)

func TestFeaturesTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Features
		want []string
	}{
		{
			name: "all fields",
			in:   Features{Genres: []string{"drama"}, Creators: []string{"Jane"}, EpisodeLength: 42, Region: "AU"},
			want: []string{"genre:drama", "creator:Jane", "len:2", "region:AU"},
		},
		{
			name: "unknown length and blank region",
			in:   Features{Genres: []string{"comedy", "cozy"}, Region: "  "},
			want: []string{"genre:comedy", "genre:cozy"},
		},
		{
			name: "empty",
			in:   Features{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.in.Tokens()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokens() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLengthBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes int
		want    int
	}{
		{1, 0}, {20, 0}, {21, 1}, {35, 1}, {36, 2}, {45, 2}, {46, 3}, {120, 3},
	}
	for _, tt := range tests {
		if got := LengthBucket(tt.minutes); got != tt.want {
			t.Errorf("LengthBucket(%d) = %d, want %d", tt.minutes, got, tt.want)
		}
	}
}

func norm(v Vector) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestTokenVectorIsUnitAndStable(t *testing.T) {
	t.Parallel()

	a := TokenVector("genre:drama")
	b := TokenVector("genre:drama")
	if len(a) != Dim {
		t.Fatalf("len = %d, want %d", len(a), Dim)
	}
	if math.Abs(norm(a)-1) > 1e-9 {
		t.Errorf("norm = %f, want 1", norm(a))
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same token produced different vectors")
	}
	if reflect.DeepEqual(a, TokenVector("genre:comedy")) {
		t.Error("different tokens produced identical vectors")
	}
}

func TestEmbedIsOrderIndependent(t *testing.T) {
	t.Parallel()

	a := Embed([]string{"genre:drama", "creator:Jane", "len:2"})
	b := Embed([]string{"len:2", "genre:drama", "creator:Jane"})
	if !reflect.DeepEqual(a, b) {
		t.Error("token order changed the embedding")
	}
	if math.Abs(norm(a)-1) > 1e-9 {
		t.Errorf("norm = %f, want 1", norm(a))
	}
}

func TestEmbedEmptyIsZero(t *testing.T) {
	t.Parallel()

	v := Embed(nil)
	if len(v) != Dim || !IsZero(v) {
		t.Errorf("Embed(nil) should be a zero vector of length %d", Dim)
	}
}

func TestEmbedWeightedMatchesEmbedForUnitWeight(t *testing.T) {
	t.Parallel()

	toks := []string{"genre:drama", "creator:Jane"}
	if !reflect.DeepEqual(Embed(toks), EmbedWeighted([]Weighted{{Tokens: toks, Weight: 1}})) {
		t.Error("unit-weight EmbedWeighted differs from Embed")
	}
}

func TestEmbedWeightedNegativeWeightPointsAway(t *testing.T) {
	t.Parallel()

	liked := Embed([]string{"genre:drama"})
	disliked := EmbedWeighted([]Weighted{{Tokens: []string{"genre:drama"}, Weight: -1}})
	if c := Cosine(liked, disliked); c > -0.999 {
		t.Errorf("Cosine = %f, want -1", c)
	}
}

func TestCosineAndSimilarity(t *testing.T) {
	t.Parallel()

	v := Embed([]string{"genre:drama"})
	tests := []struct {
		name    string
		a, b    Vector
		wantCos float64
		wantSim float64
	}{
		{"identical", v, v, 1, 1},
		{"empty", nil, v, 0, 0.5},
		{"mismatched length", Vector{1, 0}, v, 0, 0.5},
		{"zero norm", make(Vector, Dim), v, 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.wantCos) > 1e-9 {
				t.Errorf("Cosine = %f, want %f", got, tt.wantCos)
			}
			if got := Similarity(tt.a, tt.b); math.Abs(got-tt.wantSim) > 1e-9 {
				t.Errorf("Similarity = %f, want %f", got, tt.wantSim)
			}
		})
	}
}
