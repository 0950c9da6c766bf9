// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/feedloom/internal/logging"
)

// Sample is one observed request.
type Sample struct {
	Route    string
	Method   string
	Status   int
	Duration time.Duration
	At       time.Time
}

// RouteStats aggregates the samples of one route.
type RouteStats struct {
	Route        string  `json:"route"`
	RequestCount int     `json:"request_count"`
	ErrorCount   int     `json:"error_count"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        int64   `json:"p50_ms"`
	P95MS        int64   `json:"p95_ms"`
	P99MS        int64   `json:"p99_ms"`
	MaxMS        int64   `json:"max_ms"`
}

// LatencyMonitor keeps a sliding window of request samples keyed by chi
// route pattern, so /views/{id}/items is one route regardless of id.
type LatencyMonitor struct {
	mu       sync.RWMutex
	samples  []Sample
	capacity int
	slow     time.Duration
}

// NewLatencyMonitor keeps the last capacity samples and warns about
// requests slower than slow. A zero slow disables the warning.
func NewLatencyMonitor(capacity int, slow time.Duration) *LatencyMonitor {
	if capacity <= 0 {
		capacity = 1000
	}
	return &LatencyMonitor{
		samples:  make([]Sample, 0, capacity),
		capacity: capacity,
		slow:     slow,
	}
}

// Record adds a sample, evicting the oldest when full.
func (m *LatencyMonitor) Record(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.samples) == m.capacity {
		copy(m.samples, m.samples[1:])
		m.samples = m.samples[:len(m.samples)-1]
	}
	m.samples = append(m.samples, s)
}

// Stats returns per-route statistics, busiest route first.
func (m *LatencyMonitor) Stats() []RouteStats {
	m.mu.RLock()
	byRoute := make(map[string][]Sample)
	for _, s := range m.samples {
		key := s.Method + " " + s.Route
		byRoute[key] = append(byRoute[key], s)
	}
	m.mu.RUnlock()

	out := make([]RouteStats, 0, len(byRoute))
	for route, samples := range byRoute {
		durations := make([]int64, len(samples))
		var sum int64
		errs := 0
		for i, s := range samples {
			durations[i] = s.Duration.Milliseconds()
			sum += durations[i]
			if s.Status >= http.StatusInternalServerError {
				errs++
			}
		}
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		out = append(out, RouteStats{
			Route:        route,
			RequestCount: len(samples),
			ErrorCount:   errs,
			AvgMS:        float64(sum) / float64(len(samples)),
			P50MS:        percentile(durations, 0.50),
			P95MS:        percentile(durations, 0.95),
			P99MS:        percentile(durations, 0.99),
			MaxMS:        durations[len(durations)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestCount != out[j].RequestCount {
			return out[i].RequestCount > out[j].RequestCount
		}
		return out[i].Route < out[j].Route
	})
	return out
}

// Recent returns up to n of the newest samples, oldest first.
func (m *LatencyMonitor) Recent(n int) []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > len(m.samples) {
		n = len(m.samples)
	}
	out := make([]Sample, n)
	copy(out, m.samples[len(m.samples)-n:])
	return out
}

// Middleware records every request passing through it.
func (m *LatencyMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		d := time.Since(start)
		m.Record(Sample{Route: route, Method: r.Method, Status: status, Duration: d, At: start})

		if m.slow > 0 && d > m.slow {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("route", route).
				Dur("duration", d).
				Msg("Slow request detected")
		}
	})
}

// percentile picks from an ascending slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
