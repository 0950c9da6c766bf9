// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package metrics provides Prometheus instrumentation for Feedloom.

# Overview

Collectors are registered with the default registry through promauto
and exposed at /metrics by the HTTP router:

	curl http://localhost:3858/metrics

# Available Metrics

Feed pipeline:
  - feed_fetch_cycles_total{service,query,result}
  - feed_fetch_duration_seconds{service}
  - feed_items_published_total{service}
  - feed_items_dropped_total{service,reason}
  - feed_remote_calls_total{service,outcome}
  - feed_open_views{service}

Credentials and connectivity:
  - credential_state{service} (0=offline, 1=unconfigured, 2=unauthorized, 3=authorized)
  - credential_transitions_total{service,from_state,to_state}
  - connectivity_online

Infrastructure:
  - cache_hits_total / cache_misses_total {cache_type}
  - circuit_breaker_* {name}
  - websocket_* and api_* collectors
  - events_published_total{type}
*/
package metrics
