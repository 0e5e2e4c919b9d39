// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package eventprocessor

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to Event.
const SchemaVersion = 1

// Topics.
const (
	TopicRatingWritten     = "rating.written"
	TopicPreferenceWritten = "preference.written"
)

// Event is the payload of every topic. It carries identifiers only;
// handlers re-read current state from the store.
type Event struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	HouseholdID   string    `json:"household_id"`
	PersonID      string    `json:"person_id"`
	ItemID        string    `json:"item_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func newEvent(topic, householdID, personID string) *Event {
	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          topic,
		HouseholdID:   householdID,
		PersonID:      personID,
		Timestamp:     time.Now().UTC(),
	}
}

// NewRatingWritten creates a rating.written event.
func NewRatingWritten(householdID, personID, itemID string) *Event {
	e := newEvent(TopicRatingWritten, householdID, personID)
	e.ItemID = itemID
	return e
}

// NewPreferenceWritten creates a preference.written event.
func NewPreferenceWritten(householdID, personID string) *Event {
	return newEvent(TopicPreferenceWritten, householdID, personID)
}

// GetSchemaVersion returns the schema version, defaulting to 1 for events without one.
func (e *Event) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1
	}
	return e.SchemaVersion
}

// Topic returns the topic the event is published on.
func (e *Event) Topic() string {
	return e.Type
}

// Validate checks required fields and returns an error if validation fails.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	switch e.Type {
	case TopicRatingWritten:
		if e.ItemID == "" {
			return &ValidationError{Field: "item_id", Message: "required for " + TopicRatingWritten}
		}
	case TopicPreferenceWritten:
	default:
		return &ValidationError{Field: "type", Message: "unknown event type " + e.Type}
	}
	if e.HouseholdID == "" {
		return &ValidationError{Field: "household_id", Message: "required"}
	}
	if e.PersonID == "" {
		return &ValidationError{Field: "person_id", Message: "required"}
	}
	return nil
}

// ValidationError reports an invalid event field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
