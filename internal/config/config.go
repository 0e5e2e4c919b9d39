// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

// Package config loads Couchside configuration.
//
// Loading order (LoadWithKoanf):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (config.yaml, /etc/couchside/config.yaml, or CONFIG_PATH)
//  3. Environment variables listed in envTransformFunc
//
// Struct tags drive go-playground/validator checks; Validate adds the
// cross-field rules the tags cannot express.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/couchside/internal/validation"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Badger    BadgerConfig    `koanf:"badger"`
	Cache     CacheConfig     `koanf:"cache"`
	Redis     RedisConfig     `koanf:"redis"`
	Recommend RecommendConfig `koanf:"recommend"`
	Events    EventsConfig    `koanf:"events"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RankTimeout bounds the data loading phase of one recommendation request.
	// Default: 10s
	RankTimeout time.Duration `koanf:"rank_timeout" validate:"gt=0"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the DuckDB catalog database.
type DatabaseConfig struct {
	// Path to the DuckDB file. Empty opens an in-memory database.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"`

	// SeedDemoData loads a small demo household and catalog on startup.
	// Default: false
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// BadgerConfig configures the embedding vector store.
type BadgerConfig struct {
	// Path to the badger directory. Empty runs badger in memory.
	Path string `koanf:"path"`

	// BreakerFailures is the consecutive failure count that opens the store breaker.
	// Default: 5
	BreakerFailures uint32 `koanf:"breaker_failures" validate:"gte=1"`

	// BreakerTimeout is how long the breaker stays open.
	// Default: 30s
	BreakerTimeout time.Duration `koanf:"breaker_timeout" validate:"gt=0"`

	// BackfillInterval is how often all item vectors are recomputed.
	// Zero disables the periodic backfill. Default: 6h
	BackfillInterval time.Duration `koanf:"backfill_interval" validate:"gte=0"`
}

// CacheConfig configures the recommendation result cache.
type CacheConfig struct {
	// Backend is memory or redis.
	// Default: memory
	Backend  string        `koanf:"backend" validate:"oneof=memory redis"`
	TTL      time.Duration `koanf:"ttl" validate:"gt=0"`
	Capacity int           `koanf:"capacity" validate:"gte=1"`
}

// RedisConfig configures the shared cache backend.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

// RecommendConfig holds the tunable ranking knobs exposed to operators.
// Anything not listed keeps the engine default.
type RecommendConfig struct {
	DefaultCount int `koanf:"default_count" validate:"gte=1"`
	MaxCount     int `koanf:"max_count" validate:"gte=1"`

	RatingWeightVeryGood   float64 `koanf:"rating_weight_very_good" validate:"gte=0"`
	RatingWeightAcceptable float64 `koanf:"rating_weight_acceptable" validate:"gte=0"`
	RatingPenaltyBad       float64 `koanf:"rating_penalty_bad" validate:"gte=0"`
	TagLikeBonus           float64 `koanf:"tag_like_bonus" validate:"gte=0"`
	HistoryAdjBoost        float64 `koanf:"history_adj_boost" validate:"gte=0"`

	FamilyCoverageMinFit  float64 `koanf:"family_coverage_min_fit"`
	FamilyStrongMinFit    float64 `koanf:"family_strong_min_fit"`
	FamilyStrongRule      string  `koanf:"family_strong_rule" validate:"oneof=min avg"`
	FamilyStrongLockCount int     `koanf:"family_strong_lock_count" validate:"gte=0"`

	RationaleMaxChars int `koanf:"rationale_max_chars" validate:"gte=20"`

	// OffersStaleAfter marks availability older than this as stale.
	// Default: 168h
	OffersStaleAfter time.Duration `koanf:"offers_stale_after" validate:"gt=0"`

	// VectorSearchMinItems is the stored-vector count that enables neighbor ordering.
	// Default: 100
	VectorSearchMinItems int `koanf:"vector_search_min_items" validate:"gte=0"`

	// HistoryLimit is how many recent external watch entries feed adjacency.
	// Default: 50
	HistoryLimit int `koanf:"history_limit" validate:"gte=0"`
}

// EventsConfig configures the in-process event router.
type EventsConfig struct {
	RetryCount      int           `koanf:"retry_count" validate:"gte=0"`
	RetryInterval   time.Duration `koanf:"retry_interval" validate:"gte=0"`
	RebuildPerSec   float64       `koanf:"rebuild_per_sec" validate:"gt=0"`
	RebuildBurst    int           `koanf:"rebuild_burst" validate:"gte=1"`
	OutputBuffer    int64         `koanf:"output_buffer" validate:"gte=0"`
	RouterCloseWait time.Duration `koanf:"router_close_wait" validate:"gt=0"`
}

// SecurityConfig configures CORS and rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks tag constraints and cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("invalid configuration: %w", verr)
	}

	var errs []string
	if c.Recommend.DefaultCount > c.Recommend.MaxCount {
		errs = append(errs, "recommend.default_count must not exceed recommend.max_count")
	}
	if f := c.Recommend.FamilyCoverageMinFit; f < 0 || f > 5 {
		errs = append(errs, "recommend.family_coverage_min_fit must be between 0 and 5")
	}
	if f := c.Recommend.FamilyStrongMinFit; f < 0 || f > 5 {
		errs = append(errs, "recommend.family_strong_min_fit must be between 0 and 5")
	}
	if c.Cache.Backend == "redis" && strings.TrimSpace(c.Redis.Addr) == "" {
		errs = append(errs, "redis.addr is required when cache.backend is redis")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
