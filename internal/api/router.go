// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redline-soc/redline/internal/config"
	"github.com/redline-soc/redline/internal/ingest"
	"github.com/redline-soc/redline/internal/metrics"
	"github.com/redline-soc/redline/internal/middleware"
	"github.com/redline-soc/redline/internal/store"
)

// performanceMetricsWindow bounds how many recent latency samples the
// performance monitor keeps per route for percentile calculations.
const performanceMetricsWindow = 2048

// rateLimit returns a chi rate-limit middleware keyed by client IP, or a
// no-op when disabled in SecurityConfig.
func rateLimit(sec config.SecurityConfig) func(http.Handler) http.Handler {
	if sec.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	reqs := sec.RateLimitReqs
	if reqs <= 0 {
		reqs = 100
	}
	return httprate.Limit(reqs, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit(r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

// NewRouter builds the chi router for the ingest and query surfaces,
// wiring CORS, rate limiting, request ID, compression, and Prometheus
// metrics middleware ahead of the handlers in this package.
func NewRouter(db *store.DB, agg *ingest.Aggregator, cfg *config.Config) http.Handler {
	h := NewHandler(db, agg, cfg.Pipeline.ClusterBucketSeconds)
	perfMon := middleware.NewPerformanceMonitor(performanceMetricsWindow)

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(rateLimit(cfg.Security))
	r.Use(middleware.Metrics)
	r.Use(perfMon.Middleware)
	r.Use(middleware.Compression)

	r.Get("/health", h.Health)
	r.Get("/metrics", h.Metrics)
	r.Handle("/internal/prometheus", promhttp.Handler())
	r.Get("/internal/performance", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(perfMon.GetStats())
	})

	r.Post("/ingest/logs", h.IngestLogs)

	r.Get("/incidents", h.ListIncidents)
	r.Get("/incidents/{id}", h.GetIncident)
	r.Get("/incidents/{id}/evidence", h.IncidentEvidence)
	r.Get("/evidence/incident/{id}", h.IncidentEvidence)
	r.Get("/incidents/by-event/{event_id}", h.IncidentByEvent)
	r.Get("/incidents/by-cluster/{ck}", h.IncidentByCluster)
	r.Post("/incidents/{id}/suggest_actions", h.SuggestActions)
	r.Post("/incidents/{id}/approve_action", h.ApproveAction)

	r.Get("/events/recent", h.RecentEvents)
	r.Get("/evidence/{event_id}", h.EventEvidence)
	r.Get("/events/{id}/evidence", h.EventEvidence)

	return r
}
