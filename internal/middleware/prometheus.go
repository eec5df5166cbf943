// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/redline-soc/redline/internal/metrics"
)

// Metrics records every request into the Prometheus counters and
// histograms in internal/metrics. The endpoint label is the chi route
// pattern ("/incidents/{id}/evidence"), not the raw path, so incident and
// event ids do not explode label cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		rec := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)

		metrics.RecordAPIRequest(r.Method, routeLabel(r), strconv.Itoa(rec.status), time.Since(start))
	})
}

// routeLabel returns the matched chi route pattern, falling back to the
// raw path for requests that never matched a route (404s).
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// statusRecorder captures the status code a handler wrote so the metrics
// and performance middleware can label by it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}
