// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/couchside/config.yaml",
	"/etc/couchside/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8780,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RankTimeout:     10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/couchside.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = DuckDB default
		},
		Badger: BadgerConfig{
			Path:             "/data/vectors",
			BreakerFailures:  5,
			BreakerTimeout:   30 * time.Second,
			BackfillInterval: 6 * time.Hour,
		},
		Cache: CacheConfig{
			Backend:  "memory",
			TTL:      5 * time.Minute,
			Capacity: 2048,
		},
		Redis: RedisConfig{
			Addr: "",
			DB:   0,
		},
		Recommend: RecommendConfig{
			DefaultCount:           6,
			MaxCount:               50,
			RatingWeightVeryGood:   0.25,
			RatingWeightAcceptable: 0.05,
			RatingPenaltyBad:       0.40,
			TagLikeBonus:           0.08,
			HistoryAdjBoost:        0.06,
			FamilyCoverageMinFit:   0.6,
			FamilyStrongMinFit:     0.78,
			FamilyStrongRule:       "min",
			FamilyStrongLockCount:  1,
			RationaleMaxChars:      180,
			OffersStaleAfter:       7 * 24 * time.Hour,
			VectorSearchMinItems:   100,
			HistoryLimit:           50,
		},
		Events: EventsConfig{
			RetryCount:      3,
			RetryInterval:   100 * time.Millisecond,
			RebuildPerSec:   20,
			RebuildBurst:    40,
			OutputBuffer:    256,
			RouterCloseWait: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with precedence ENV > file > defaults,
// then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// COUCHSIDE_CACHE_TTL -> cache.ttl, LOG_LEVEL -> logging.level, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps accepted environment variable names (lower-cased) to
// koanf paths. Unlisted variables are ignored.
var envMappings = map[string]string{
	"http_host":                  "server.host",
	"http_port":                  "server.port",
	"http_read_timeout":          "server.read_timeout",
	"http_write_timeout":         "server.write_timeout",
	"http_shutdown_timeout":      "server.shutdown_timeout",
	"rank_timeout":               "server.rank_timeout",
	"duckdb_path":                "database.path",
	"duckdb_max_memory":          "database.max_memory",
	"duckdb_threads":             "database.threads",
	"seed_demo_data":             "database.seed_demo_data",
	"vector_store_path":          "badger.path",
	"vector_breaker_failures":    "badger.breaker_failures",
	"vector_breaker_timeout":     "badger.breaker_timeout",
	"vector_backfill_interval":   "badger.backfill_interval",
	"cache_backend":              "cache.backend",
	"cache_ttl":                  "cache.ttl",
	"cache_capacity":             "cache.capacity",
	"redis_addr":                 "redis.addr",
	"redis_password":             "redis.password",
	"redis_db":                   "redis.db",
	"recs_default_count":         "recommend.default_count",
	"recs_max_count":             "recommend.max_count",
	"rating_weight_very_good":    "recommend.rating_weight_very_good",
	"rating_weight_acceptable":   "recommend.rating_weight_acceptable",
	"rating_penalty_bad":         "recommend.rating_penalty_bad",
	"tag_like_bonus":             "recommend.tag_like_bonus",
	"history_adj_boost":          "recommend.history_adj_boost",
	"family_coverage_min_fit":    "recommend.family_coverage_min_fit",
	"family_strong_min_fit":      "recommend.family_strong_min_fit",
	"family_strong_rule":         "recommend.family_strong_rule",
	"family_strong_lock_count":   "recommend.family_strong_lock_count",
	"rationale_max_chars":        "recommend.rationale_max_chars",
	"offers_stale_after":         "recommend.offers_stale_after",
	"vector_search_min_items":    "recommend.vector_search_min_items",
	"history_limit":              "recommend.history_limit",
	"events_retry_count":         "events.retry_count",
	"events_retry_interval":      "events.retry_interval",
	"events_rebuild_per_sec":     "events.rebuild_per_sec",
	"events_rebuild_burst":       "events.rebuild_burst",
	"events_output_buffer":       "events.output_buffer",
	"events_router_close_wait":   "events.router_close_wait",
	"cors_origins":               "security.cors_origins",
	"rate_limit_reqs":            "security.rate_limit_reqs",
	"rate_limit_window":          "security.rate_limit_window",
	"disable_rate_limit":         "security.rate_limit_disabled",
	"log_level":                  "logging.level",
	"log_format":                 "logging.format",
	"log_caller":                 "logging.caller",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, "couchside_")
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
