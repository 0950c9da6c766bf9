// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package models defines the normalized data model shared by every feed
service connector.

Key Components:

  - Item: one normalized feed entry. Fields are kept as a string map
    because each service contributes a different field set; well-known
    keys (id, date, url, title, content, author, authorid, authoricon,
    thumbnail) are exported as constants.
  - ImageFetch: a deferred "download this URL into this field" request
    attached to an Item by a parser. Parsers never fetch eagerly.
  - ItemSet: a set of Items keyed by id with last-write-wins insertion.
    A set becomes immutable once frozen for publishing; derived sets
    (Without, Filter) are copies.
  - Capability / CapabilitySet: flags describing what a service can
    currently do.
  - APIResponse: the envelope written by every HTTP endpoint.

Dates:

Every parser stores the date field in one canonical text form,
RFC 3339 in UTC with second precision (see FormatDate). Sorting on the
canonical string is therefore chronological.

Thread Safety:

Items and unfrozen ItemSets are not safe for concurrent mutation. A
frozen ItemSet may be read from any number of goroutines.
*/
package models
