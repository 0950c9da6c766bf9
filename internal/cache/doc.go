// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package cache persists item sets for instant cold-start display and
provides a small in-memory LRU.

# Item Cache

Store keeps one entry per (service, query, fingerprint) in BadgerDB,
under keys of the form

	items:<service>:<query>:<fingerprint>

Each value is the JSON-encoded item set plus the time it was saved. An
entry is overwritten after every successful fetch and the whole service
prefix is dropped when the authenticated user changes.

The cache is advisory. A missing, expired or corrupt entry is reported as
a miss and never blocks the network fetch that follows.

# Fingerprints

Fingerprint hashes the query name and its sorted parameters so that the
same logical query always maps to the same key.

# LRU

LRU is a generic, thread-safe LRU cache with lazy TTL expiry, used for
per-service lookups that are expensive to repeat, such as resolving an
author's icon URL.
*/
package cache
