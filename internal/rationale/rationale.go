// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

// Package rationale writes the short, spoiler-safe sentence and evidence
// chips shown next to each recommended item.
//
// A rationale has the shape "A <tone> <genre>; <why>, <why>". Every sentence
// passes through Lint before it is returned; a lint hit yields ErrSpoiler and
// callers fall back to Fallback.
package rationale

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Fixed sentences.
const (
	Fallback         = "A well-matched pick based on your tastes."
	DefaultReason    = "Matches your recent picks"
	SubstitutePrefix = "Boundary-safe alternative: "
)

// ErrSpoiler is returned when text matches a spoiler pattern.
var ErrSpoiler = errors.New("rationale: spoiler pattern matched")

// spoilerPatterns are checked in order; the first match wins.
var spoilerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(dies|death|kills?|murder(er)?|killer|betray(s|ed)|traitor|villain|twist|revealed?)\b`),
	regexp.MustCompile(`(?i)\b(wedding|pregnan(t|cy)|break[ -]?up|divorce|affair)\b`),
	regexp.MustCompile(`(?i)\b(season\s*\d+|episode\s*\d+|finale|post[- ]credits?)\b`),
	regexp.MustCompile(`(?i)\b(return(s|ed)?\s+from\s+the\s+dead|time\s+jump)\b`),
	regexp.MustCompile(`(?i)\b(whodunnit|who\s+killed|the\s+killer\s+is)\b`),
}

// toneWords maps a genre or flag to an adjective. Lookup order is fixed by
// the item's genres then flags, not by this map.
var toneWords = map[string]string{
	"comedy":   "funny",
	"drama":    "grounded",
	"thriller": "tense",
	"family":   "family-friendly",
}

// Lint returns ErrSpoiler if text matches any spoiler pattern.
func Lint(text string) error {
	if text == "" {
		return nil
	}
	for _, p := range spoilerPatterns {
		if p.MatchString(text) {
			return fmt.Errorf("%w: %s", ErrSpoiler, p.String())
		}
	}
	return nil
}

// Input is what the builder needs to know about one item.
type Input struct {
	Genres []string
	Flags  []string

	// Feedback terms; a positive value enables the matching reason.
	RatingPrior float64
	TagNudge    float64
	HistoryAdj  float64

	// Substitute marks a boundary-safe alternative.
	Substitute bool
}

// Builder writes rationales capped at MaxChars.
type Builder struct {
	MaxChars int
}

// NewBuilder returns a Builder. maxChars <= 0 falls back to 180.
func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = 180
	}
	return &Builder{MaxChars: maxChars}
}

// Build returns the linted rationale for in, or ErrSpoiler.
func (b *Builder) Build(in Input) (string, error) {
	var tone string
	for _, t := range append(append([]string{}, in.Genres...), in.Flags...) {
		if w, ok := toneWords[t]; ok {
			tone = w
			break
		}
	}
	genre := "series"
	if len(in.Genres) > 0 {
		genre = in.Genres[0]
	}
	head := "A " + genre
	if tone != "" {
		head = "A " + tone + " " + genre
	}

	var why []string
	if in.RatingPrior > 0 {
		why = append(why, "you rated similar shows highly")
	}
	if in.TagNudge > 0 {
		why = append(why, "matches your liked tags")
	}
	if in.HistoryAdj > 0 {
		why = append(why, "near your recent watches")
	}
	if len(why) == 0 {
		why = append(why, DefaultReason)
	}

	text := head + "; " + strings.Join(why, ", ")
	if in.Substitute {
		text = SubstitutePrefix + text
	}
	text = strings.TrimRight(truncate(text, b.MaxChars), " \t\r\n")
	if err := Lint(text); err != nil {
		return "", err
	}
	return text, nil
}

// Explain is Build with the fallback applied. The bool reports whether the
// fallback was used.
func (b *Builder) Explain(in Input) (string, bool) {
	text, err := b.Build(in)
	if err != nil {
		return strings.TrimRight(truncate(Fallback, b.MaxChars), " "), true
	}
	return text, false
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// WithSeasonHint appends " (showing S<n> on <provider>)" when both are known
// and the result still fits MaxChars and passes Lint.
func (b *Builder) WithSeasonHint(text string, season int, provider string) string {
	if season <= 0 || provider == "" {
		return text
	}
	hinted := fmt.Sprintf("%s (showing S%d on %s)", text, season, provider)
	if utf8.RuneCountInString(hinted) > b.MaxChars || Lint(hinted) != nil {
		return text
	}
	return hinted
}

// Evidence lists up to three overlap phrases between an item and the
// household's liked genres and creators.
func Evidence(genres, creators []string, likedGenres, likedCreators map[string]struct{}) []string {
	var out []string
	if c := overlap(creators, likedCreators); len(c) > 0 {
		out = append(out, "From creator(s) "+strings.Join(firstN(c, 2), ", "))
	}
	if g := overlap(genres, likedGenres); len(g) > 0 {
		out = append(out, "Shares your taste for "+strings.Join(firstN(g, 2), ", "))
	}
	return firstN(out, 3)
}

func overlap(vals []string, set map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(vals))
	var out []string
	for _, v := range vals {
		if _, ok := set[v]; !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
