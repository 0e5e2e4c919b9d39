// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrUnknownIntent is returned for an intent outside the supported set.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrInvalidVerdict is returned when a verdict label cannot be parsed.
	ErrInvalidVerdict = errors.New("invalid verdict")
)

// Verdict is the primary rating a person gives an item.
type Verdict int

const (
	// VerdictBad means the person did not enjoy the item.
	VerdictBad Verdict = iota
	// VerdictAcceptable means the item was fine.
	VerdictAcceptable
	// VerdictVeryGood means the person loved the item.
	VerdictVeryGood
)

// String returns the canonical label.
func (v Verdict) String() string {
	switch v {
	case VerdictBad:
		return "BAD"
	case VerdictAcceptable:
		return "ACCEPTABLE"
	case VerdictVeryGood:
		return "VERY_GOOD"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether v is one of the three verdicts.
func (v Verdict) Valid() bool {
	return v >= VerdictBad && v <= VerdictVeryGood
}

// EmbeddingWeight is the weight a rated item contributes to a person vector.
func (v Verdict) EmbeddingWeight() float64 {
	switch v {
	case VerdictVeryGood:
		return 2
	case VerdictAcceptable:
		return 1
	case VerdictBad:
		return -1
	default:
		return 0
	}
}

// ParseVerdict accepts BAD, ACCEPTABLE, VERY_GOOD (or "VERY GOOD") in any
// case, or the numeric forms 0, 1, 2.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BAD", "0":
		return VerdictBad, nil
	case "ACCEPTABLE", "1":
		return VerdictAcceptable, nil
	case "VERY_GOOD", "VERY GOOD", "2":
		return VerdictVeryGood, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidVerdict, s)
	}
}

// Intent is the viewing context that shapes scoring and allocation.
type Intent string

const (
	IntentDefault      Intent = "default"
	IntentShortTonight Intent = "short_tonight"
	IntentWeekendBinge Intent = "weekend_binge"
	IntentComfort      Intent = "comfort"
	IntentSurprise     Intent = "surprise"
)

// ParseIntent maps a request string to an Intent. Empty means default.
func ParseIntent(s string) (Intent, error) {
	switch i := Intent(strings.ToLower(strings.TrimSpace(s))); i {
	case "":
		return IntentDefault, nil
	case IntentDefault, IntentShortTonight, IntentWeekendBinge, IntentComfort, IntentSurprise:
		return i, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s)
	}
}

// OfferKind is how an item can be watched on a provider.
type OfferKind string

const (
	OfferStream  OfferKind = "stream"
	OfferFree    OfferKind = "free"
	OfferAds     OfferKind = "ads"
	OfferRent    OfferKind = "rent"
	OfferBuy     OfferKind = "buy"
	OfferUnknown OfferKind = "unknown"
)

// ParseOfferKind normalizes provider offer labels. Unrecognized labels map
// to OfferUnknown.
func ParseOfferKind(s string) OfferKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stream", "flatrate", "subscription", "svod":
		return OfferStream
	case "free":
		return OfferFree
	case "ads", "avod":
		return OfferAds
	case "rent", "tvod":
		return OfferRent
	case "buy", "est":
		return OfferBuy
	default:
		return OfferUnknown
	}
}

// Item is a catalog entry.
type Item struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Year     int      `json:"year,omitempty"`
	Metadata Metadata `json:"metadata"`

	// Flags describe tone and pacing (cozy, slow, funny, cliffhanger).
	Flags []string `json:"flags,omitempty"`

	// Warnings are content-warning keys matched against boundary maps.
	Warnings []string `json:"warnings,omitempty"`

	// Offers are the availability records. Items without offers are never recommended.
	Offers []Offer `json:"offers,omitempty"`
}

// Metadata is the structured catalog metadata of an item.
type Metadata struct {
	Genres   []string `json:"genres,omitempty"`
	Creators []string `json:"creators,omitempty"`

	// EpisodeLength in minutes; 0 means unknown.
	EpisodeLength int `json:"episode_length,omitempty"`

	// Seasons count; 0 means unknown.
	Seasons int `json:"seasons,omitempty"`

	Region string `json:"region,omitempty"`

	// AgeRating is a numeric minimum age. It takes precedence over AURating.
	AgeRating *int `json:"age_rating,omitempty"`

	// AURating is a classification label such as "PG" or "MA 15+".
	AURating string `json:"au_rating,omitempty"`
}

// auRatingAges maps normalized classification labels to minimum ages.
var auRatingAges = map[string]int{
	"G":     0,
	"PG":    8,
	"M":     15,
	"MA15+": 15,
	"MA15":  15,
	"R18+":  18,
	"R18":   18,
}

// MinimumAge returns the item's age rating, numeric or mapped from its label.
func (m Metadata) MinimumAge() (int, bool) {
	if m.AgeRating != nil {
		return *m.AgeRating, true
	}
	label := strings.ToUpper(strings.ReplaceAll(m.AURating, " ", ""))
	if age, ok := auRatingAges[label]; ok {
		return age, true
	}
	return 0, false
}

// Offer is one availability record.
type Offer struct {
	Provider string    `json:"provider"`
	Kind     OfferKind `json:"kind"`
	Quality  string    `json:"quality,omitempty"`

	// Season the offer refers to; 0 means unknown.
	Season int `json:"season,omitempty"`

	// UpdatedAt is when the offer was last checked; zero means unknown.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Person is a member of a household.
type Person struct {
	ID          string `json:"id"`
	HouseholdID string `json:"household_id"`
	Name        string `json:"name"`

	// AgeLimit is the highest age rating this person may see; nil means no limit.
	AgeLimit *int `json:"age_limit,omitempty"`

	// Boundaries maps a content-warning key to whether it is excluded.
	// Only true entries exclude.
	Boundaries map[string]bool `json:"boundaries,omitempty"`
}

// RatingEvent is one rating a person gave an item. Events are appended;
// the latest per (person, item) is authoritative.
type RatingEvent struct {
	PersonID   string    `json:"person_id"`
	ItemID     string    `json:"item_id"`
	Verdict    Verdict   `json:"verdict"`
	NuanceTags []string  `json:"nuance_tags,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Mood holds the five mood knobs on a 0..4 scale; 2 is neutral.
type Mood struct {
	Tone       int `json:"tone"`
	Pacing     int `json:"pacing"`
	Complexity int `json:"complexity"`
	Humor      int `json:"humor"`
	Optimism   int `json:"optimism"`
}

// NeutralMood is the midpoint of every knob.
var NeutralMood = Mood{Tone: 2, Pacing: 2, Complexity: 2, Humor: 2, Optimism: 2}

// Constraints are structural viewing constraints.
type Constraints struct {
	EpisodeLengthMax  *int `json:"ep_length_max,omitempty"`
	SeasonsMax        *int `json:"seasons_max,omitempty"`
	AvoidCliffhangers bool `json:"avoid_cliffhangers,omitempty"`
	AvoidLongRunning  bool `json:"avoid_dnf,omitempty"`
}

// PreferenceProfile is reconstructed from a person's latest onboarding event.
type PreferenceProfile struct {
	PersonID        string      `json:"person_id,omitempty"`
	CreatorsLike    []string    `json:"creators_like,omitempty"`
	CreatorsDislike []string    `json:"creators_dislike,omitempty"`
	Mood            Mood        `json:"mood"`
	Constraints     Constraints `json:"constraints"`
	CreatedAt       time.Time   `json:"created_at,omitempty"`
}

// HistoryEntry is one recent watch imported from an external tracker,
// already joined to catalog genres and creators.
type HistoryEntry struct {
	PersonID string    `json:"person_id"`
	Title    string    `json:"title"`
	Genres   []string  `json:"genres,omitempty"`
	Creators []string  `json:"creators,omitempty"`
	SeenAt   time.Time `json:"seen_at"`
}

// FitFactors records the feedback terms applied to a candidate.
type FitFactors struct {
	Base        float64 `json:"base"`
	RatingPrior float64 `json:"rating_prior"`
	TagNudge    float64 `json:"tag_nudge"`
	NoteNudge   float64 `json:"note_nudge"`
	HistoryAdj  float64 `json:"history_adj"`
	Anchor      float64 `json:"anchor"`
}

// ScoredCandidate is a candidate during one ranking request.
type ScoredCandidate struct {
	Item    *Item
	Score   float64
	Novelty float64

	// VecSim is the vector similarity in [0,1]; HasVecSim reports whether it was computed.
	VecSim    float64
	HasVecSim bool

	Reasons []string
	Factors FitFactors

	// Fits maps person ID to per-person fit (family mode only).
	Fits map[string]float64

	// Strong is set when the aggregate fit clears the strong-pick bar.
	Strong bool

	// Substitute marks a boundary-safe alternative.
	Substitute bool
}

// Request is one ranking call.
type Request struct {
	People []Person
	Intent Intent

	// Count is the slate size; <= 0 uses the configured default.
	Count int

	// AnchorID biases the slate toward items like this one. Unknown IDs are ignored.
	AnchorID string

	// Seed perturbs tie-breaking. nil is a valid seed of its own.
	Seed *int64
}

// Prediction is the label and confidence shown for an item.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"c"`
	Novelty    float64 `json:"n"`
}

// WatchOption is one provider an item can be watched on.
type WatchOption struct {
	Provider string    `json:"platform"`
	Kind     OfferKind `json:"offer_type"`
}

// AvailabilityMeta describes the freshest offer of an item.
type AvailabilityMeta struct {
	Provider         string     `json:"provider"`
	Kind             OfferKind  `json:"type"`
	AsOf             *time.Time `json:"as_of"`
	Stale            bool       `json:"stale"`
	Season           int        `json:"season,omitempty"`
	SeasonConsistent bool       `json:"season_consistent"`
}

// PersonFit is one person's fit for an item in a shared slate.
type PersonFit struct {
	PersonID string  `json:"person_id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

// RankedItem is one entry of a returned slate.
type RankedItem struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Year           int               `json:"year,omitempty"`
	Score          float64           `json:"score"`
	WhereToWatch   []WatchOption     `json:"where_to_watch"`
	Rationale      string            `json:"rationale"`
	Warnings       []string          `json:"warnings"`
	Flags          []string          `json:"flags"`
	Prediction     Prediction        `json:"prediction"`
	SimilarBecause []string          `json:"similar_because"`
	Genres         []string          `json:"genres"`
	Creators       []string          `json:"creators"`
	AURating       string            `json:"au_rating,omitempty"`
	AgeRating      *int              `json:"age_rating,omitempty"`
	FitByPerson    []PersonFit       `json:"fit_by_profile"`
	Availability   *AvailabilityMeta `json:"availability"`
	FamilyStrong   bool              `json:"family_strong"`
	Substitute     bool              `json:"substitute,omitempty"`
}

// FamilyWarning is attached when no item clears the strong-pick bar.
type FamilyWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FamilyMeta explains the family selection.
type FamilyMeta struct {
	StrongLockedIDs []string       `json:"strong_locked_ids"`
	Warning         *FamilyWarning `json:"warning"`
	StrongMinFit    float64        `json:"strong_min_fit"`
	StrongRule      string         `json:"strong_rule"`
}

// Slate is the result of a ranking call.
type Slate struct {
	Intent Intent       `json:"intent"`
	Items  []RankedItem `json:"items"`

	// Family is set for requests with two or more people.
	Family *FamilyMeta `json:"family,omitempty"`
}

// IDs returns the item IDs in slate order.
func (s *Slate) IDs() []string {
	ids := make([]string, len(s.Items))
	for i := range s.Items {
		ids[i] = s.Items[i].ID
	}
	return ids
}

// StaleCount returns how many items have stale or unknown availability.
func (s *Slate) StaleCount() int {
	n := 0
	for i := range s.Items {
		if a := s.Items[i].Availability; a == nil || a.Stale {
			n++
		}
	}
	return n
}
