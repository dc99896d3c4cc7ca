// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package config loads and validates service configuration from layered
// sources: built-in defaults, an optional YAML file, then environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the service.
type Config struct {
	Source   SourceConfig   `koanf:"source"`
	Database DatabaseConfig `koanf:"database"`
	Sync     SyncConfig     `koanf:"sync"`
	Cleaner  CleanerConfig  `koanf:"cleaner"`
	Server   ServerConfig   `koanf:"server"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// SourceConfig describes the upstream dashboard API.
type SourceConfig struct {
	// URL is the base endpoint of the dashboard data API.
	URL string `koanf:"url" validate:"required,url"`

	// Timeout bounds each upstream request.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// PageSize is the page size requested from the upstream API.
	PageSize int `koanf:"page_size" validate:"gt=0,lte=2500"`

	// RateLimit is the maximum upstream requests per second.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`

	// RateBurst is the rate limiter burst size.
	RateBurst int `koanf:"rate_burst" validate:"gt=0"`
}

// DatabaseConfig configures the local DuckDB cache.
type DatabaseConfig struct {
	// Path is the DuckDB file path; ":memory:" for an in-memory cache.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory is the DuckDB memory limit, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count; 0 uses runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// SyncConfig controls the periodic synchronisation loop.
type SyncConfig struct {
	// Interval is how often the background sync loop runs.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`

	// RefreshInterval is the minimum age before a dataset is considered
	// stale and re-fetched.
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gt=0"`

	// RetryAttempts bounds fetch retries per synchroniser run.
	RetryAttempts int `koanf:"retry_attempts" validate:"gte=0,lte=10"`

	// RetryDelay is the initial backoff between retries.
	RetryDelay time.Duration `koanf:"retry_delay" validate:"gt=0"`

	// SummaryLagDays is the reporting-lag offset for the area summary
	// rollup: the most recent snapshot is taken at today minus this.
	SummaryLagDays int `koanf:"summary_lag_days" validate:"gte=0,lte=14"`
}

// CleanerConfig controls reachability pruning and time-based expiry.
type CleanerConfig struct {
	// Interval is how often the cleaner loop runs.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`

	// ExpiryCutoff evicts datasets whose last sync is older than this,
	// regardless of reachability.
	ExpiryCutoff time.Duration `koanf:"expiry_cutoff" validate:"gt=0"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// APIConfig configures API behaviour.
type APIConfig struct {
	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gt=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	// CORSOrigins lists allowed origins for browser clients.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid config field %s (rule %s)", f.Namespace(), f.Tag())
		}
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}
