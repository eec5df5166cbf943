// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package middleware

import (
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redline-soc/redline/internal/logging"
)

// slowRequestThreshold is where a single request becomes worth a warn line.
// Ingest batches are the only endpoint expected to approach it.
const slowRequestThreshold = time.Second

// PerformanceMonitor keeps a fixed-size ring of recent request latencies
// per route and serves percentile summaries at /internal/performance. It
// is the quick in-process view for an operator; long-term trends belong to
// the Prometheus histograms.
type PerformanceMonitor struct {
	mu     sync.Mutex
	window int
	routes map[string]*routeWindow
}

// routeWindow is the per-route ring buffer plus lifetime counters. The
// ring overwrites oldest-first, so percentiles always describe the most
// recent window requests, not the process lifetime.
type routeWindow struct {
	latencies []int64 // milliseconds
	next      int
	full      bool
	requests  int64
	errors    int64
}

// EndpointStats is one row of the /internal/performance response.
type EndpointStats struct {
	Route    string `json:"route"`
	Requests int64  `json:"requests"`
	Errors   int64  `json:"errors"`
	P50MS    int64  `json:"p50_ms"`
	P95MS    int64  `json:"p95_ms"`
	P99MS    int64  `json:"p99_ms"`
	MaxMS    int64  `json:"max_ms"`
}

// NewPerformanceMonitor builds a monitor keeping up to window latency
// samples per route.
func NewPerformanceMonitor(window int) *PerformanceMonitor {
	if window < 1 {
		window = 1
	}
	return &PerformanceMonitor{
		window: window,
		routes: make(map[string]*routeWindow),
	}
}

// Middleware wraps next with latency observation. Must sit inside the
// router so the chi route pattern is resolved by the time it records.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		pm.observe(r.Method+" "+routeLabel(r), elapsed.Milliseconds(), rec.status)

		if elapsed > slowRequestThreshold {
			logging.CtxWarn(r.Context()).
				Str("route", routeLabel(r)).
				Dur("elapsed", elapsed).
				Int("status", rec.status).
				Msg("slow request")
		}
	})
}

func (pm *PerformanceMonitor) observe(route string, ms int64, status int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	win := pm.routes[route]
	if win == nil {
		win = &routeWindow{latencies: make([]int64, pm.window)}
		pm.routes[route] = win
	}

	win.latencies[win.next] = ms
	win.next++
	if win.next == pm.window {
		win.next = 0
		win.full = true
	}

	win.requests++
	if status >= http.StatusInternalServerError {
		win.errors++
	}
}

// GetStats summarizes every observed route, ordered by route name so the
// JSON output is stable across calls.
func (pm *PerformanceMonitor) GetStats() []EndpointStats {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	stats := make([]EndpointStats, 0, len(pm.routes))
	for route, win := range pm.routes {
		n := win.next
		if win.full {
			n = pm.window
		}
		sorted := make([]int64, n)
		copy(sorted, win.latencies[:n])
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		stats = append(stats, EndpointStats{
			Route:    route,
			Requests: win.requests,
			Errors:   win.errors,
			P50MS:    nearestRank(sorted, 0.50),
			P95MS:    nearestRank(sorted, 0.95),
			P99MS:    nearestRank(sorted, 0.99),
			MaxMS:    nearestRank(sorted, 1),
		})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Route < stats[j].Route })
	return stats
}

// nearestRank returns the p-th percentile of sorted using the
// nearest-rank method: the smallest sample at least p of the way in.
func nearestRank(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}
