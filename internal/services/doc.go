// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package services holds the plumbing shared by the social network
connectors in its subpackages.

Each connector (digg, plurk, sina, myspace, youtube) implements
engine.Service. Its wire parsing lives in pure Parse functions so it can
be tested against captured documents, while the connector itself owns
the authenticated transport. The transport is held by a Session, which
routes every call through one circuit breaker per service and answers
engine.ErrNotConnected while no credentials have been exchanged.
Exchange never installs the caller itself: it hands it back through
credentials.Session.Commit, which the state machine runs only for the
exchange that is still current.
*/
package services
