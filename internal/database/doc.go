// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

// Package database stores the Couchside catalog and household data in DuckDB.
//
// # Overview
//
// The package is the data source of the recommendation engine: DB implements
// recommend.DataSource and also owns the write paths the API uses.
//
// Files:
//   - database.go: lifecycle (open, initialize, close, ping)
//   - database_schema.go: table and index creation
//   - database_connection.go: pool configuration and write retry on conflicts
//   - migrations.go: versioned migrations tracked in schema_migrations
//   - database_utils.go: context defaults, checkpoint, record counts
//   - catalog.go: items and availability offers
//   - people.go: households, people, boundaries
//   - ratings.go: append-only rating events
//   - preferences.go: append-only onboarding preference events
//   - history.go: imported external watch history
//   - seed.go: a small demo household and catalog
//
// # Data Model
//
// Ratings and preference events are append-only; readers derive the current
// state (latest rating per item, latest preference per person). Structured
// columns (metadata, flags, warnings, boundaries, nuance tags, preference
// payloads) are stored as JSON text encoded with github.com/goccy/go-json so
// no DuckDB extension is required.
//
// # Thread Safety
//
// DB is safe for concurrent use. DuckDB serializes writers; writes that hit
// a transaction conflict are retried a few times before failing.
package database
