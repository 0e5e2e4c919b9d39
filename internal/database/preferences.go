// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/couchside/internal/recommend"
)

// InsertPreference appends an onboarding event for the profile's person.
// The latest event per person is the one the engine reads.
func (db *DB) InsertPreference(ctx context.Context, profile *recommend.PreferenceProfile) (string, error) {
	if profile == nil || profile.PersonID == "" {
		return "", fmt.Errorf("insert preference: %w: person_id is required", ErrInvalidInput)
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("encode preference payload: %w", err)
	}

	id := uuid.New().String()
	err = db.withTx(ctx, "insert preference", func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM people WHERE id = ?`, profile.PersonID, "person"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO preference_events (id, person_id, payload, created_at) VALUES (?, ?, ?, ?)`,
			id, profile.PersonID, string(payload), profile.CreatedAt.UTC())
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LatestPreferences returns the latest preference profile per person.
// People without an onboarding event are absent from the map.
func (db *DB) LatestPreferences(ctx context.Context, personIDs []string) (map[string]recommend.PreferenceProfile, error) {
	out := make(map[string]recommend.PreferenceProfile, len(personIDs))
	if len(personIDs) == 0 {
		return out, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT person_id, payload, created_at FROM preference_events
		WHERE person_id IN (` + placeholders(len(personIDs)) + `)
		QUALIFY row_number() OVER (PARTITION BY person_id ORDER BY created_at DESC, rowid DESC) = 1`
	rows, err := db.conn.QueryContext(ctx, query, stringArgs(personIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			personID, payload string
			createdAt         time.Time
		)
		if err := rows.Scan(&personID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		profile := recommend.PreferenceProfile{Mood: recommend.NeutralMood}
		if err := decodeJSONColumn(payload, &profile); err != nil {
			return nil, fmt.Errorf("preference of %s: %w", personID, err)
		}
		profile.PersonID = personID
		profile.CreatedAt = createdAt.UTC()
		out[personID] = profile
	}
	return out, rows.Err()
}
