// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"errors"
	"testing"
)

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Verdict
		wantErr bool
	}{
		{in: "BAD", want: VerdictBad},
		{in: "acceptable", want: VerdictAcceptable},
		{in: "very good", want: VerdictVeryGood},
		{in: "VERY_GOOD", want: VerdictVeryGood},
		{in: "2", want: VerdictVeryGood},
		{in: "meh", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseVerdict(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidVerdict) {
				t.Errorf("ParseVerdict(%q) err = %v, want ErrInvalidVerdict", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseVerdict(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if VerdictVeryGood.String() != "VERY_GOOD" || Verdict(7).Valid() {
		t.Error("verdict label or validity wrong")
	}
}

func TestParseIntent(t *testing.T) {
	t.Parallel()

	if got, err := ParseIntent(""); err != nil || got != IntentDefault {
		t.Errorf("empty intent = %v, %v", got, err)
	}
	if got, err := ParseIntent(" Short_Tonight "); err != nil || got != IntentShortTonight {
		t.Errorf("short_tonight = %v, %v", got, err)
	}
	if _, err := ParseIntent("marathon"); !errors.Is(err, ErrUnknownIntent) {
		t.Errorf("err = %v, want ErrUnknownIntent", err)
	}
}

func TestMinimumAge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		meta   Metadata
		want   int
		wantOK bool
	}{
		{name: "numeric wins", meta: Metadata{AgeRating: intPtr(16), AURating: "G"}, want: 16, wantOK: true},
		{name: "ma15", meta: Metadata{AURating: "MA 15+"}, want: 15, wantOK: true},
		{name: "pg", meta: Metadata{AURating: "pg"}, want: 8, wantOK: true},
		{name: "unrated", meta: Metadata{}, wantOK: false},
		{name: "unknown label", meta: Metadata{AURating: "TV-14"}, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := tt.meta.MinimumAge()
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("%s: MinimumAge = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseOfferKind(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]OfferKind{
		"flatrate": OfferStream,
		"FREE":     OfferFree,
		"avod":     OfferAds,
		"rent":     OfferRent,
		"buy":      OfferBuy,
		"cinema":   OfferUnknown,
	} {
		if got := ParseOfferKind(in); got != want {
			t.Errorf("ParseOfferKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLabelAndConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score     float64
		wantLabel string
		wantConf  float64
	}{
		{score: 0, wantLabel: LabelBad, wantConf: 0.95},
		{score: 0.5, wantLabel: LabelAcceptable, wantConf: 0.5},
		{score: 0.75, wantLabel: LabelAcceptable, wantConf: 0.75},
		{score: 1.2, wantLabel: LabelVeryGood, wantConf: 0.7},
		{score: 0.45, wantLabel: LabelBad, wantConf: 0.55},
	}
	for _, tt := range tests {
		if got := Label(tt.score); got != tt.wantLabel {
			t.Errorf("Label(%v) = %s, want %s", tt.score, got, tt.wantLabel)
		}
		if got := Confidence(tt.score); got != tt.wantConf {
			t.Errorf("Confidence(%v) = %v, want %v", tt.score, got, tt.wantConf)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg := DefaultConfig()
	cfg.MaxCount = 1
	cfg.Feedback.JitterScale = 0.1
	if err := cfg.Validate(); err == nil {
		t.Error("expected errors")
	}
}
