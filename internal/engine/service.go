// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package engine

import (
	"context"
	"time"

	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/models"
)

// Fetchable runs one fetch cycle for a query.
type Fetchable interface {
	Fetch(ctx context.Context, query string, params map[string]string) (*models.ItemSet, error)
}

// Service is a social network connector.
type Service interface {
	Fetchable
	credentials.Exchanger

	Name() string
	StaticCapabilities() []models.Capability
	// ValidateQuery returns ErrInvalidQuery for unsupported queries.
	ValidateQuery(query string, params map[string]string) error
	// Reset forgets the current session. Exchange must not install a
	// session itself; it returns one through credentials.Session.Commit.
	Reset()
}

// Cacheable services persist fetched sets for cold start.
type Cacheable interface {
	CacheTTL() time.Duration
}

// StatusUpdatable services can post a status message.
type StatusUpdatable interface {
	UpdateStatus(ctx context.Context, msg string) error
}

// AvatarProvider services know the session user's avatar.
type AvatarProvider interface {
	AvatarURL() string
}
