// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

/*
database_schema.go - Database Schema Management

Tables:
  - households: a group of people sharing one screen
  - people: household members with age limit and boundary map (JSON)
  - items: catalog entries; metadata, flags and warnings stored as JSON text
  - offers: availability per (item, provider, kind) with last-checked time
  - ratings: append-only verdict events
  - preference_events: append-only onboarding payloads (JSON)
  - watch_history: recent watches imported from an external tracker

JSON columns are TEXT so no DuckDB extension has to be loaded.

Index Strategy:
Indexes cover the per-person reads a ranking request performs
(ratings, preference events, history) and offer lookups by item.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS households (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS people (
			id TEXT PRIMARY KEY,
			household_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			age_limit INTEGER,
			boundaries TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			year INTEGER NOT NULL DEFAULT 0,
			metadata TEXT NOT NULL DEFAULT '{}',
			flags TEXT NOT NULL DEFAULT '[]',
			warnings TEXT NOT NULL DEFAULT '[]',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// updated_at is nullable: unknown freshness is reported as stale.
		`CREATE TABLE IF NOT EXISTS offers (
			item_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			kind TEXT NOT NULL,
			quality TEXT NOT NULL DEFAULT '',
			season INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP,
			PRIMARY KEY (item_id, provider, kind)
		);`,

		`CREATE TABLE IF NOT EXISTS ratings (
			id TEXT PRIMARY KEY,
			person_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			verdict INTEGER NOT NULL,
			nuance_tags TEXT NOT NULL DEFAULT '[]',
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS preference_events (
			id TEXT PRIMARY KEY,
			person_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS watch_history (
			person_id TEXT NOT NULL,
			title TEXT NOT NULL,
			item_id TEXT,
			seen_at TIMESTAMP NOT NULL
		);`,
	}
}

// createIndexes creates all database indexes.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

// getIndexQueries returns the index creation SQL statements
func (db *DB) getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_people_household ON people(household_id);`,
		`CREATE INDEX IF NOT EXISTS idx_offers_item ON offers(item_id);`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_person ON ratings(person_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_item ON ratings(item_id);`,
		`CREATE INDEX IF NOT EXISTS idx_preferences_person ON preference_events(person_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_history_person ON watch_history(person_id, seen_at);`,
	}
}
