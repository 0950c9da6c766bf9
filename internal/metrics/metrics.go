// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed Pipeline Metrics
	FetchCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_cycles_total",
			Help: "Total number of item view fetch cycles",
		},
		[]string{"service", "query", "result"}, // result: "success", "error", "discarded"
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Duration of a fetch cycle including parsing",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service"},
	)

	ItemsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_published_total",
			Help: "Total number of items published to subscribers",
		},
		[]string{"service"},
	)

	ItemsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_dropped_total",
			Help: "Items removed before publishing",
		},
		[]string{"service", "reason"}, // reason: "banned", "invalid", "hidden"
	)

	RemoteCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_remote_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"service", "outcome"}, // outcome: "ok", "transport", "api", "parse"
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_remote_call_duration_seconds",
			Help:    "Upstream API call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	OpenViews = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_open_views",
			Help: "Current number of open item views",
		},
		[]string{"service"},
	)

	// Credential Metrics
	CredentialState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "credential_state",
			Help: "Credential state (0=offline, 1=unconfigured, 2=unauthorized, 3=authorized)",
		},
		[]string{"service"},
	)

	CredentialTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credential_transitions_total",
			Help: "Total number of credential state transitions",
		},
		[]string{"service", "from_state", "to_state"},
	)

	ConnectivityOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "connectivity_online",
			Help: "1 when the connectivity monitor reports online",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published on the bus",
		},
		[]string{"type"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "items", "author_icon"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Cache reads or writes that failed and were ignored",
		},
		[]string{"cache_type", "operation"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordFetchCycle records the outcome of one item view fetch cycle.
func RecordFetchCycle(service, query, result string, duration time.Duration, published int) {
	FetchCycles.WithLabelValues(service, query, result).Inc()
	FetchDuration.WithLabelValues(service).Observe(duration.Seconds())
	if published > 0 {
		ItemsPublished.WithLabelValues(service).Add(float64(published))
	}
}

// RecordRemoteCall records one upstream call.
func RecordRemoteCall(service, outcome string, duration time.Duration) {
	RemoteCalls.WithLabelValues(service, outcome).Inc()
	RemoteCallDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordItemsDropped adds n dropped items for reason.
func RecordItemsDropped(service, reason string, n int) {
	if n > 0 {
		ItemsDropped.WithLabelValues(service, reason).Add(float64(n))
	}
}

// RecordCredentialTransition records a state machine transition.
func RecordCredentialTransition(service, from, to string, toValue float64) {
	CredentialTransitions.WithLabelValues(service, from, to).Inc()
	CredentialState.WithLabelValues(service).Set(toValue)
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetOnline updates the connectivity gauge.
func SetOnline(online bool) {
	if online {
		ConnectivityOnline.Set(1)
		return
	}
	ConnectivityOnline.Set(0)
}
