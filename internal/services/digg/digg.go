// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package digg connects to the Digg story API.
package digg

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/tomtom215/feedloom/internal/config"
	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
	"github.com/tomtom215/feedloom/internal/services"
)

// Name is the service name.
const Name = config.ServiceDigg

// QueryFeed is the only supported query.
const QueryFeed = "feed"

// Service is the Digg connector. The secret store holds the OAuth access
// token pair.
type Service struct {
	cfg     config.ServiceConfig
	client  *remote.Client
	session *services.Session
}

var (
	_ engine.Service   = (*Service)(nil)
	_ engine.Cacheable = (*Service)(nil)
)

// New creates the connector. It fails with a ConfigError when the
// consumer key pair is missing.
func New(opts services.Options) (*Service, error) {
	if opts.Config.APIKey == "" || opts.Config.APISecret == "" {
		return nil, remote.NewConfigError(Name, "no API key configured")
	}
	return &Service{
		cfg:     opts.Config,
		client:  services.NewClient(Name, opts),
		session: services.NewSession(Name, opts.Breaker),
	}, nil
}

// Name implements engine.Service.
func (s *Service) Name() string { return Name }

// StaticCapabilities implements engine.Service.
func (s *Service) StaticCapabilities() []models.Capability {
	return []models.Capability{
		models.CapCanVerifyCredentials,
		models.CapHasBanishableIface,
		models.CapHasQueryIface,
	}
}

// ValidateQuery implements engine.Service.
func (s *Service) ValidateQuery(query string, _ map[string]string) error {
	if query != QueryFeed {
		return engine.ErrInvalidQuery
	}
	return nil
}

// CacheTTL implements engine.Cacheable.
func (s *Service) CacheTTL() time.Duration { return s.cfg.CacheTTL }

// Reset implements engine.Service.
func (s *Service) Reset() { s.session.Reset() }

// Exchange builds the signing transport. Digg has no identity call, so
// the token pair is accepted as is and a rejection surfaces on the first
// fetch.
func (s *Service) Exchange(ctx context.Context, creds credentials.Credentials) (credentials.Session, error) {
	if creds.Key == "" || creds.Secret == "" {
		return credentials.Session{}, &remote.APIError{
			Service:    Name,
			StatusCode: http.StatusUnauthorized,
			Message:    "no access token",
			Auth:       true,
		}
	}
	caller := services.OAuth1Caller(ctx, s.client, s.cfg.APIKey, s.cfg.APISecret, creds.Key, creds.Secret)
	return credentials.Session{Commit: func() { s.session.Set(caller) }}, nil
}

// Fetch implements engine.Fetchable.
func (s *Service) Fetch(ctx context.Context, query string, params map[string]string) (*models.ItemSet, error) {
	if err := s.ValidateQuery(query, params); err != nil {
		return nil, err
	}
	doc, err := s.session.Call(ctx, remote.Request{
		Function: "2.0/story.getTopNews",
		Params:   url.Values{"limit": {"10"}},
	})
	if err != nil {
		return nil, err
	}
	return Parse(doc.Body)
}
