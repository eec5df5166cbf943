// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package logging is Redline's zerolog-based structured logging layer:
// one process-wide logger, request-scoped enrichment, and an slog bridge
// for the supervisor tree.
//
// # Quick Start
//
//	// Initialize once at startup, from config
//	logging.Init(logging.Config{
//	    Level:  cfg.Logging.Level,   // trace, debug, info, warn, error
//	    Format: cfg.Logging.Format,  // json (production) or console (development)
//	    Caller: cfg.Logging.Caller,
//	})
//
//	logging.Info().Str("path", cfg.Database.Path).Msg("storage initialized")
//	logging.Warn().Err(err).Str("cluster_key", ck).Msg("promotion heuristic failed")
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// # Request-Scoped Logging
//
// The RequestID middleware stores an id on the request context; Ctx and
// its shorthands emit it as a request_id field, tying together every line
// logged while serving one ingest batch or query:
//
//	logging.CtxInfo(r.Context()).
//	    Int("events", n).
//	    Float64("suppression_rate", rate).
//	    Msg("ingest batch committed")
//
// Outside a request (startup, the checkpoint service) the same calls work
// and simply omit the field.
//
// Never log raw event text: anything derived from an ingested event goes
// through internal/redact before it may appear in a log field.
//
// # Supervisor Bridge
//
// NewSlogLogger returns an *slog.Logger backed by this package, which is
// what sutureslog expects; supervisor restart and backoff events land in
// the same stream as the pipeline's own logs:
//
//	tree := supervisor.New(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
//
// # Configuration
//
// The LOG_LEVEL, LOG_FORMAT, and LOG_CALLER environment variables reach
// this package through internal/config; nothing here reads the
// environment directly.
//
// # Testing
//
//	var buf bytes.Buffer
//	logging.SetLogger(logging.NewTestLogger(&buf))
//	// ... exercise code, assert on buf.String()
//
// # See Also
//
//   - github.com/rs/zerolog: underlying logging library
//   - internal/middleware: the RequestID middleware feeding Ctx
package logging
