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

// InsertRating appends a rating event and returns its ID. The person and the
// item must exist. A zero CreatedAt is stamped with the current time.
func (db *DB) InsertRating(ctx context.Context, ev *recommend.RatingEvent) (string, error) {
	if ev == nil || ev.PersonID == "" || ev.ItemID == "" {
		return "", fmt.Errorf("insert rating: %w: person_id and item_id are required", ErrInvalidInput)
	}
	if !ev.Verdict.Valid() {
		return "", fmt.Errorf("insert rating: %w", recommend.ErrInvalidVerdict)
	}
	tags, err := json.Marshal(nonNil(ev.NuanceTags))
	if err != nil {
		return "", fmt.Errorf("encode nuance tags: %w", err)
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	id := uuid.New().String()
	err = db.withTx(ctx, "insert rating", func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM people WHERE id = ?`, ev.PersonID, "person"); err != nil {
			return err
		}
		if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM items WHERE id = ?`, ev.ItemID, "item"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ratings (id, person_id, item_id, verdict, nuance_tags, note, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, ev.PersonID, ev.ItemID, int(ev.Verdict), string(tags), ev.Note, ev.CreatedAt.UTC())
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Ratings returns all rating events of the given people, oldest first and
// in insertion order for equal timestamps.
func (db *DB) Ratings(ctx context.Context, personIDs []string) ([]recommend.RatingEvent, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT person_id, item_id, verdict, nuance_tags, note, created_at FROM ratings
		WHERE person_id IN (` + placeholders(len(personIDs)) + `)
		ORDER BY created_at, rowid`
	rows, err := db.conn.QueryContext(ctx, query, stringArgs(personIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var out []recommend.RatingEvent
	for rows.Next() {
		var (
			ev      recommend.RatingEvent
			verdict int
			tags    string
		)
		if err := rows.Scan(&ev.PersonID, &ev.ItemID, &verdict, &tags, &ev.Note, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ev.Verdict = recommend.Verdict(verdict)
		ev.CreatedAt = ev.CreatedAt.UTC()
		if err := decodeJSONColumn(tags, &ev.NuanceTags); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// requireRow returns ErrNotFound when countQuery yields zero for id.
func requireRow(ctx context.Context, tx *sql.Tx, countQuery, id, kind string) error {
	var n int
	if err := tx.QueryRowContext(ctx, countQuery, id).Scan(&n); err != nil {
		return fmt.Errorf("check %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
