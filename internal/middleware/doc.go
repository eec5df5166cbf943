// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package middleware holds the HTTP middleware this service adds on top of
// chi's own stack: request-id tagging, Prometheus instrumentation, an
// in-process latency monitor, and gzip compression. CORS, rate limiting,
// and panic recovery come from the chi ecosystem and are wired directly in
// internal/api.
//
// Everything here follows chi's func(http.Handler) http.Handler
// convention, so the router composes them with r.Use:
//
//	r.Use(chimiddleware.Recoverer)
//	r.Use(middleware.RequestID)
//	r.Use(middleware.Metrics)
//	r.Use(perfMon.Middleware)
//	r.Use(middleware.Compression)
//
// RequestID stamps X-Request-ID on the request context (via
// internal/logging) and the response, so the log lines for one ingest
// batch can be pulled together afterwards.
//
// Metrics feeds internal/metrics' request counters and histograms. It
// labels by the matched chi route pattern, not the raw URL path, keeping
// per-incident ids out of Prometheus label cardinality.
//
// PerformanceMonitor keeps a bounded ring of recent latencies per route
// and serves p50/p95/p99 summaries at GET /internal/performance; it also
// warns on individual requests slower than a second, which in practice
// only ingest batches approach.
//
// Compression gzip-encodes responses when the client sends
// Accept-Encoding: gzip; incident listing and evidence payloads compress
// well because redaction sentinels and cluster keys repeat.
package middleware
