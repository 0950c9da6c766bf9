// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package engine binds each social service to its credential state machine
and its open item views, and exposes the presentation operations.

# Services

A connector implements Service and, selectively, the capability
interfaces:

  - Fetchable: runs one fetch cycle (required, part of Service)
  - Cacheable: item sets may be persisted for cold start
  - StatusUpdatable: can post a status message
  - AvatarProvider: knows the authenticated user's avatar URL

# Engine

One Engine runs per service. It forwards connectivity and
credentials-updated events to the credential.Machine and fans every
resulting transition out to the open views: entering Authorized refreshes
them, leaving Authorized idles them, and a user change clears them.

# Registry

Registry indexes engines by service name and views by handle. It is the
surface used by the HTTP API and the WebSocket hub.

# Events

Subscriber events are published as JSON on the "feed.events" topic of an
in-process watermill bus:

	refreshed            view_id, service, query, items
	capabilities-changed service, capabilities
	user-changed         service
	avatar-retrieved     service, path
	status-updated       service, success
*/
package engine
