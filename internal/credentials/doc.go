// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package credentials tracks the authentication state of one feed service.

# States

	Offline       no connectivity, or an exchange is still pending
	Unconfigured  online but nothing stored in the secret store
	Unauthorized  stored credentials were rejected
	Authorized    the exchange succeeded and a Session is held

# Transitions

	SetOnline(false)          any -> Offline, session cleared
	SetOnline(true)           no secret -> Unconfigured
	                          secret    -> Offline, exchange started
	exchange success          -> Authorized
	exchange failure          -> Unauthorized
	CredentialsUpdated        down then up, with UserChanged set
	MarkUnauthorized          Authorized -> Unauthorized

The exchange runs on its own goroutine. Each exchange is tagged with a
generation number; a result that arrives after a newer down/up cycle has
started is discarded. A current result's Session.Commit runs under the
machine lock before Authorized is announced, and Config.Reset runs under
the same lock whenever the session is cleared, so a superseded exchange
can never leave its caller installed in the connector.

Listeners registered with OnTransition receive every transition in the
order the machine applied them, on a goroutine that is not holding the
machine lock.
*/
package credentials
