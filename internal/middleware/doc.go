// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package middleware holds transport-level HTTP middleware that is independent
of the API's routes and error envelope.

  - Compression: gzip for responses over MinCompressSize. Item listings are
    the main beneficiary; small JSON replies and websocket upgrades are sent
    as is.
  - LatencyMonitor: a sliding window of request samples keyed by chi route
    pattern, with percentile statistics and a slow-request warning. The API
    serves its statistics at GET /api/v1/health/performance.

Usage:

	mon := middleware.NewLatencyMonitor(1000, time.Second)
	r := chi.NewRouter()
	r.Use(mon.Middleware)
	r.With(middleware.Compression).Get("/views/{id}/items", h.ViewItems)

Rate limiting, request IDs and Prometheus instrumentation live in the api
package next to the handlers they wrap.
*/
package middleware
