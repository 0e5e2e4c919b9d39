// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8780 {
		t.Errorf("Server.Port = %d, want 8780", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
	}
	if cfg.Recommend.FamilyCoverageMinFit != 0.6 {
		t.Errorf("FamilyCoverageMinFit = %v, want 0.6", cfg.Recommend.FamilyCoverageMinFit)
	}
	if cfg.Recommend.OffersStaleAfter != 7*24*time.Hour {
		t.Errorf("OffersStaleAfter = %v, want 168h", cfg.Recommend.OffersStaleAfter)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("COUCHSIDE_FAMILY_STRONG_RULE", "avg")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DISABLE_RATE_LIMIT", "true")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v, want 90s", cfg.Cache.TTL)
	}
	if cfg.Recommend.FamilyStrongRule != "avg" {
		t.Errorf("FamilyStrongRule = %q, want avg", cfg.Recommend.FamilyStrongRule)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if !cfg.Security.RateLimitDisabled {
		t.Error("expected rate limiting disabled")
	}
}

func TestLoadWithKoanf_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 7000
recommend:
  default_count: 8
  family_strong_lock_count: 2
cache:
  backend: memory
  capacity: 16
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("env should win over file: port = %d", cfg.Server.Port)
	}
	if cfg.Recommend.DefaultCount != 8 || cfg.Recommend.FamilyStrongLockCount != 2 {
		t.Errorf("file values not applied: %+v", cfg.Recommend)
	}
	if cfg.Cache.Capacity != 16 {
		t.Errorf("Cache.Capacity = %d, want 16", cfg.Cache.Capacity)
	}
	if cfg.Recommend.RationaleMaxChars != 180 {
		t.Errorf("defaults should survive a partial file, got %d", cfg.Recommend.RationaleMaxChars)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"bad rule", func(c *Config) { c.Recommend.FamilyStrongRule = "median" }, "family_strong_rule"},
		{"count order", func(c *Config) { c.Recommend.DefaultCount = 60 }, "default_count must not exceed"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }, "redis.addr is required"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, "backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"LOG_LEVEL":                "logging.level",
		"COUCHSIDE_LOG_LEVEL":      "logging.level",
		"REDIS_ADDR":               "redis.addr",
		"VECTOR_BACKFILL_INTERVAL": "badger.backfill_interval",
		"PATH":                     "",
	}
	for in, want := range cases {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
