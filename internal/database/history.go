// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/couchside/internal/recommend"
)

// InsertHistory records one external watch. The title is matched against the
// catalog case-insensitively; unmatched titles are kept with no item.
func (db *DB) InsertHistory(ctx context.Context, personID, title string, seenAt time.Time) error {
	title = strings.TrimSpace(title)
	if personID == "" || title == "" {
		return fmt.Errorf("insert history: %w: person_id and title are required", ErrInvalidInput)
	}
	if seenAt.IsZero() {
		seenAt = time.Now().UTC()
	}
	return db.withTx(ctx, "insert history", func(tx *sql.Tx) error {
		var itemID sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM items WHERE lower(title) = lower(?) ORDER BY id LIMIT 1`, title).Scan(&itemID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("resolve title: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO watch_history (person_id, title, item_id, seen_at) VALUES (?, ?, ?, ?)`,
			personID, title, itemID, seenAt.UTC())
		return err
	})
}

// RecentHistory returns up to limit recent watches of the given people,
// newest first, joined to the catalog for genres and creators.
func (db *DB) RecentHistory(ctx context.Context, personIDs []string, limit int) ([]recommend.HistoryEntry, error) {
	if len(personIDs) == 0 || limit <= 0 {
		return nil, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT h.person_id, h.title, COALESCE(i.metadata, ''), h.seen_at
		FROM watch_history h LEFT JOIN items i ON i.id = h.item_id
		WHERE h.person_id IN (` + placeholders(len(personIDs)) + `)
		ORDER BY h.seen_at DESC, h.rowid DESC
		LIMIT ?`
	args := append(stringArgs(personIDs), limit)
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []recommend.HistoryEntry
	for rows.Next() {
		var (
			h        recommend.HistoryEntry
			metadata string
		)
		if err := rows.Scan(&h.PersonID, &h.Title, &metadata, &h.SeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		var md recommend.Metadata
		if err := decodeJSONColumn(metadata, &md); err != nil {
			return nil, err
		}
		h.Genres = md.Genres
		h.Creators = md.Creators
		h.SeenAt = h.SeenAt.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}
