// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package engine

import "errors"

var (
	// ErrNotConnected is returned when an operation needs an authorized session.
	ErrNotConnected = errors.New("service not connected")

	// ErrInvalidQuery is returned for a query the service does not support.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrViewNotFound is returned for an unknown view handle.
	ErrViewNotFound = errors.New("view not found")

	// ErrServiceNotFound is returned for an unknown or disabled service.
	ErrServiceNotFound = errors.New("service not found")

	// ErrUnsupported is returned when the service lacks the capability
	// for an operation.
	ErrUnsupported = errors.New("operation not supported")
)
