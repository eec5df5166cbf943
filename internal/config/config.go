// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package config

// Config holds all application configuration loaded from environment variables
// and an optional config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all settings
//  2. Config File: optional YAML config file for persistent settings
//  3. Environment Variables: override any setting
//
// Config is immutable after LoadWithKoanf() returns and safe for concurrent
// read access from multiple goroutines.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig holds storage settings for the embedded incident store.
type DatabaseConfig struct {
	// URL is the storage DSN. The sqlite:// scheme is accepted for
	// compatibility with the original deployment convention, but is mapped
	// onto the embedded DuckDB file store rather than an actual SQLite driver.
	URL string `koanf:"url"`
	// Path is the resolved on-disk path extracted from URL.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int    `koanf:"port"`
	Host    string `koanf:"host"`
	Timeout string `koanf:"timeout"`
}

// SecurityConfig holds CORS and rate limiting settings for the HTTP API.
type SecurityConfig struct {
	CORSOrigins       []string `koanf:"cors_origins"`
	RateLimitReqs     int      `koanf:"rate_limit_reqs"`
	RateLimitDisabled bool     `koanf:"rate_limit_disabled"`
}

// PipelineConfig holds settings for the redaction, clustering, and
// aggregation stages of the ingestion pipeline.
type PipelineConfig struct {
	// DefaultResidencyTag is used when an event's region does not match any
	// known residency rule (default: SA).
	DefaultResidencyTag string `koanf:"default_residency_tag"`

	// StoreRaw controls whether the original event payload is persisted
	// alongside the redacted/normalized forms (default: false).
	StoreRaw bool `koanf:"store_raw"`

	// BenignTypes lists event_type values classified as benign noise unless
	// also present in CriticalTypes.
	BenignTypes []string `koanf:"benign_types"`

	// CriticalTypes lists event_type values that can never be classified as
	// benign, regardless of BenignTypes.
	CriticalTypes []string `koanf:"critical_types"`

	// ClusterBucketSeconds is the width of the time bucket used when
	// deriving a cluster key (default: 900).
	ClusterBucketSeconds int `koanf:"cluster_bucket_seconds"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
