// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

/*
Package config provides centralized configuration management for Redline.

This package handles loading, validation, and parsing of environment variables
for the ingestion pipeline, the incident store, and the HTTP API. It ensures
consistent configuration across the service and provides sensible defaults for
optional settings.

# Configuration Sources

Configuration is loaded in three layers via Koanf, in ascending precedence:

 1. Defaults: built-in sensible defaults for all settings
 2. Config File: optional YAML config file, if present
 3. Environment Variables: override any setting

# Environment Variables

  - DATABASE_URL: storage DSN (default: sqlite:///./soc.db, mapped onto the
    embedded DuckDB store)
  - HTTP_PORT / HTTP_HOST: listen address (default: 0.0.0.0:3857)
  - CORS_ALLOW_ORIGINS: comma-separated allowed origins (default: *)
  - DEFAULT_RESIDENCY_TAG: fallback residency tag (default: SA)
  - STORE_RAW: persist raw event payloads (default: false)
  - BENIGN_TYPES: comma-separated event types classified as benign
    (default: auth_success)
  - CRITICAL_TYPES: comma-separated event types that are never benign
    (default: auth_failure,mfa_bypass,api_key_use,privilege_escalation)
  - CLUSTER_BUCKET_SECONDS: clustering time bucket width in seconds (default: 900)
  - LOG_LEVEL / LOG_FORMAT / LOG_CALLER: zerolog settings

# Usage Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}

# Thread Safety

The Config struct is immutable after loading and safe for concurrent read
access from multiple goroutines.
*/
package config
