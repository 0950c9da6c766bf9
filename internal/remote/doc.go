// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package remote implements the authenticated HTTP call layer used by every
feed service connector.

A Request names an API function relative to the service base URL, an
HTTP method, parameters and extra headers. Call returns the raw Document
or one of the typed errors below; CallAsync runs the same call on its own
goroutine and delivers a single Result on a channel so that callers can
select on completion, cancellation and timers together.

# Error Taxonomy

  - TransportError: network, DNS or TLS failure before a response arrived
  - APIError: a response with a non-2xx status, carrying the server message
  - ParseError: the body could not be decoded into the expected shape
  - ConfigError: a service is missing its API key or secret

IsAuthError reports whether an error means the stored credentials were
rejected (HTTP 401/403 or a service-flagged equivalent).

# Resilience

Client applies a per-service token bucket (golang.org/x/time/rate) before
each request. CircuitBreakerClient wraps any Caller with sony/gobreaker;
API-level rejections (4xx) and parse errors do not count as failures, so
an expired token never opens the breaker.

Nothing in this package retries automatically.
*/
package remote
