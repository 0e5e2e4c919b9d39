// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/couchside/internal/recommend"
	"github.com/tomtom215/couchside/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// ForHousehold is the for= value that ranks a shared slate for every member.
const ForHousehold = "household"

// RecommendationQuery is the validated query string of the recommendations endpoint.
type RecommendationQuery struct {
	For     string `json:"for" validate:"required,max=128"`
	Intent  string `json:"intent" validate:"omitempty,intent"`
	Count   int    `json:"count" validate:"gte=0"`
	LikeID  string `json:"like_id" validate:"omitempty,max=128"`
	Seed    *int64 `json:"seed"`
	Explain bool   `json:"explain"`
}

// parseRecommendationQuery reads query parameters. Syntax errors are returned
// as validation errors so every bad parameter is reported in one response.
func parseRecommendationQuery(r *http.Request) (RecommendationQuery, *validation.RequestValidationError) {
	q := r.URL.Query()
	out := RecommendationQuery{
		For:    strings.TrimSpace(q.Get("for")),
		Intent: strings.ToLower(strings.TrimSpace(q.Get("intent"))),
		LikeID: strings.TrimSpace(q.Get("like_id")),
	}
	if out.For == "" {
		out.For = ForHousehold
	}

	var syntax []validation.FieldError
	if s := q.Get("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			syntax = append(syntax, validation.FieldError{Field: "count", Tag: "int", Value: s, Message: "count must be an integer"})
		} else {
			out.Count = n
		}
	}
	if s := q.Get("seed"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			syntax = append(syntax, validation.FieldError{Field: "seed", Tag: "int64", Value: s, Message: "seed must be a 64-bit integer"})
		} else {
			out.Seed = &n
		}
	}
	if s := q.Get("explain"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			syntax = append(syntax, validation.FieldError{Field: "explain", Tag: "bool", Value: s, Message: "explain must be true or false"})
		} else {
			out.Explain = b
		}
	}

	verr := validation.ValidateStruct(&out)
	if len(syntax) == 0 {
		return out, verr
	}
	if verr == nil {
		verr = &validation.RequestValidationError{}
	}
	verr.Fields = append(syntax, verr.Fields...)
	return out, verr
}

// RatingRequest is the body of POST /api/v1/ratings.
type RatingRequest struct {
	PersonID   string   `json:"person_id" validate:"required,max=128"`
	ItemID     string   `json:"item_id" validate:"required,max=128"`
	Verdict    string   `json:"verdict" validate:"required,verdict"`
	NuanceTags []string `json:"nuance_tags" validate:"max=20,dive,min=1,max=64"`
	Note       string   `json:"note" validate:"max=2000"`
}

// ToEvent converts the request to a rating event.
func (r *RatingRequest) ToEvent() (*recommend.RatingEvent, error) {
	v, err := recommend.ParseVerdict(r.Verdict)
	if err != nil {
		return nil, err
	}
	return &recommend.RatingEvent{
		PersonID:   r.PersonID,
		ItemID:     r.ItemID,
		Verdict:    v,
		NuanceTags: r.NuanceTags,
		Note:       r.Note,
	}, nil
}

// MoodRequest holds the onboarding mood knobs. Omitted knobs are neutral.
type MoodRequest struct {
	Tone       *int `json:"tone" validate:"omitempty,moodknob"`
	Pacing     *int `json:"pacing" validate:"omitempty,moodknob"`
	Complexity *int `json:"complexity" validate:"omitempty,moodknob"`
	Humor      *int `json:"humor" validate:"omitempty,moodknob"`
	Optimism   *int `json:"optimism" validate:"omitempty,moodknob"`
}

// ConstraintsRequest holds the onboarding viewing constraints.
type ConstraintsRequest struct {
	EpisodeLengthMax  *int `json:"ep_length_max" validate:"omitempty,gte=1,lte=600"`
	SeasonsMax        *int `json:"seasons_max" validate:"omitempty,gte=1,lte=100"`
	AvoidCliffhangers bool `json:"avoid_cliffhangers"`
	AvoidLongRunning  bool `json:"avoid_dnf"`
}

// OnboardingRequest is the body of POST /api/v1/people/{personID}/onboarding.
type OnboardingRequest struct {
	CreatorsLike    []string           `json:"creators_like" validate:"max=50,dive,min=1,max=128"`
	CreatorsDislike []string           `json:"creators_dislike" validate:"max=50,dive,min=1,max=128"`
	Mood            MoodRequest        `json:"mood"`
	Constraints     ConstraintsRequest `json:"constraints"`
}

// ToProfile converts the request to a preference profile for personID.
func (o *OnboardingRequest) ToProfile(personID string) *recommend.PreferenceProfile {
	knob := func(p *int, def int) int {
		if p == nil {
			return def
		}
		return *p
	}
	n := recommend.NeutralMood
	return &recommend.PreferenceProfile{
		PersonID:        personID,
		CreatorsLike:    o.CreatorsLike,
		CreatorsDislike: o.CreatorsDislike,
		Mood: recommend.Mood{
			Tone:       knob(o.Mood.Tone, n.Tone),
			Pacing:     knob(o.Mood.Pacing, n.Pacing),
			Complexity: knob(o.Mood.Complexity, n.Complexity),
			Humor:      knob(o.Mood.Humor, n.Humor),
			Optimism:   knob(o.Mood.Optimism, n.Optimism),
		},
		Constraints: recommend.Constraints{
			EpisodeLengthMax:  o.Constraints.EpisodeLengthMax,
			SeasonsMax:        o.Constraints.SeasonsMax,
			AvoidCliffhangers: o.Constraints.AvoidCliffhangers,
			AvoidLongRunning:  o.Constraints.AvoidLongRunning,
		},
	}
}

// BoundariesRequest is the body of PUT /api/v1/people/{personID}/boundaries.
// A nil age_limit clears the limit.
type BoundariesRequest struct {
	AgeLimit   *int            `json:"age_limit" validate:"omitempty,gte=0,lte=21"`
	Boundaries map[string]bool `json:"boundaries" validate:"max=100,dive,keys,min=1,max=64,endkeys"`
}

// HistoryRequest is the body of POST /api/v1/people/{personID}/history.
type HistoryRequest struct {
	Title  string     `json:"title" validate:"required,max=256"`
	SeenAt *time.Time `json:"seen_at"`
}

// decodeBody decodes a JSON request body into dst and validates it.
// It writes the error response and returns false on failure.
func decodeBody(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			rw.BadRequest("Request body is required")
			return false
		}
		rw.BadRequest(fmt.Sprintf("Invalid JSON body: %v", err))
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationError("Request validation failed", verr.Fields)
		return false
	}
	return true
}
