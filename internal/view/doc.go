// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package view implements ItemView, a live polling subscription to one
query against one service.

# Lifecycle

A View is Stopped until Start, which loads the cache (publishing it
immediately when present), arms the refresh timer and issues the first
fetch. Stop cancels the timer and keeps the last published set. Calling
Start or Stop twice is logged and ignored.

# Fetch Cycle

Each Refresh runs one fetch on its own goroutine:

	fetch -> drop banned ids -> drop items missing id/date -> publish -> save to cache

Several fetches may be in flight at once. Results are published as
they complete, except that a result is discarded once a later-issued
refresh has already published: the newest request wins even when an
older response arrives last. Results that complete after Stop, or after
the user changed, are discarded too.

# Authorization

Fetches only run while the owning service is Authorized. Leaving
Authorized cancels the timer without stopping the view; returning to
Authorized refreshes and re-arms it.

# Errors

Fetch errors never propagate: they are logged and the previous set stays
published. Authentication failures are reported through
Config.OnAuthError so the credential state can move to Unauthorized.
*/
package view
