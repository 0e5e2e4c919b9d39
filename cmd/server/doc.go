// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

// Package main is the entry point for the Couchside server.
//
// Couchside ranks a household's catalog into short, explainable watch
// slates for one person or for everyone on the couch. Every slate is
// deterministic for the same data and seed, and every item carries the
// reasons it was picked.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional config file, then environment (Koanf v2)
//  2. Database: DuckDB with schema migrations and optional demo seed
//  3. Vector store: BadgerDB behind a circuit breaker
//  4. Recommendation engine and result cache (memory LRU or Redis)
//  5. Event bus: in-process Watermill pubsub and router
//  6. HTTP Server: chi router with CORS, rate limiting and Prometheus metrics
//
// All long-running parts run under a suture supervisor tree:
//
//	couchside
//	├── data-layer       embedding backfill
//	├── messaging-layer  event router
//	└── api-layer        http server
//
// # Configuration
//
// Settings come from built-in defaults, config.yaml (or CONFIG_PATH) and
// environment variables, optionally prefixed COUCHSIDE_. Common ones:
//
//	DUCKDB_PATH=/data/couchside.duckdb
//	SEED_DEMO_DATA=true
//	VECTOR_STORE_PATH=/data/vectors  # empty keeps vectors in memory
//	CACHE_BACKEND=redis
//	REDIS_ADDR=localhost:6379
//	RECS_DEFAULT_COUNT=6
//	RANK_TIMEOUT=10s
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains
// in-flight requests, the event router closes, and the supervisor reports
// any service that missed its shutdown timeout.
package main
