// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.RefreshInterval != 1*time.Hour {
		t.Errorf("refresh interval: got %v, want 1h", cfg.Sync.RefreshInterval)
	}
	if cfg.Cleaner.ExpiryCutoff != 48*time.Hour {
		t.Errorf("expiry cutoff: got %v, want 48h", cfg.Cleaner.ExpiryCutoff)
	}
	if cfg.Source.URL == "" {
		t.Error("source URL should have a default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
source:
  url: "https://example.test/v1/data"
sync:
  refresh_interval: 30m
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.URL != "https://example.test/v1/data" {
		t.Errorf("source URL: got %q", cfg.Source.URL)
	}
	if cfg.Sync.RefreshInterval != 30*time.Minute {
		t.Errorf("refresh interval: got %v, want 30m", cfg.Sync.RefreshInterval)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port: got %d, want 9000", cfg.Server.Port)
	}
	// Untouched sections keep defaults.
	if cfg.Cleaner.Interval != 6*time.Hour {
		t.Errorf("cleaner interval default: got %v", cfg.Cleaner.Interval)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("env should override file: got %d, want 9100", cfg.Server.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaultConfig()
	cfg.Source.URL = "not-a-url"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for bad source URL")
	}

	cfg = defaultConfig()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for bad log level")
	}

	cfg = defaultConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for port 0")
	}
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.API.CORSOrigins) != 2 {
		t.Fatalf("cors origins: got %v", cfg.API.CORSOrigins)
	}
	if cfg.API.CORSOrigins[0] != "https://a.test" || cfg.API.CORSOrigins[1] != "https://b.test" {
		t.Errorf("cors origins: got %v", cfg.API.CORSOrigins)
	}
}
