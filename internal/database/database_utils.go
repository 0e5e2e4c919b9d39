// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package database

import (
	"context"
	"fmt"
	"time"
)

// ensureContext adds a 30-second timeout to contexts without a deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// Checkpoint forces a WAL checkpoint.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// RecordCounts is the row count of each main table.
type RecordCounts struct {
	Items       int64 `json:"items"`
	Offers      int64 `json:"offers"`
	People      int64 `json:"people"`
	Ratings     int64 `json:"ratings"`
	Preferences int64 `json:"preference_events"`
	History     int64 `json:"watch_history"`
}

// GetRecordCounts returns the row counts used by the readiness endpoint.
func (db *DB) GetRecordCounts(ctx context.Context) (RecordCounts, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var rc RecordCounts
	targets := []struct {
		table string
		dst   *int64
	}{
		{"items", &rc.Items},
		{"offers", &rc.Offers},
		{"people", &rc.People},
		{"ratings", &rc.Ratings},
		{"preference_events", &rc.Preferences},
		{"watch_history", &rc.History},
	}
	for _, t := range targets {
		// Table names come from the fixed list above.
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil {
			return rc, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
	}
	return rc, nil
}
