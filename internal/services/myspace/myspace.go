// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package myspace connects to the MySpace REST API.
package myspace

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tomtom215/feedloom/internal/config"
	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
	"github.com/tomtom215/feedloom/internal/services"
)

// Name is the service name.
const Name = config.ServiceMySpace

// Queries. QueryFeed is friends' statuses followed by the user's own.
const (
	QueryFeed = "feed"
	QueryOwn  = "own"
)

// Service is the MySpace connector. The secret store holds the OAuth
// access token pair.
type Service struct {
	cfg     config.ServiceConfig
	client  *remote.Client
	session *services.Session

	mu     sync.RWMutex
	userID string
	avatar string
}

var (
	_ engine.Service         = (*Service)(nil)
	_ engine.Cacheable       = (*Service)(nil)
	_ engine.StatusUpdatable = (*Service)(nil)
	_ engine.AvatarProvider  = (*Service)(nil)
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
		models.CapCanUpdateStatus,
		models.CapCanRequestAvatar,
	}
}

// ValidateQuery implements engine.Service.
func (s *Service) ValidateQuery(query string, _ map[string]string) error {
	switch query {
	case QueryFeed, QueryOwn:
		return nil
	default:
		return engine.ErrInvalidQuery
	}
}

// CacheTTL implements engine.Cacheable.
func (s *Service) CacheTTL() time.Duration { return s.cfg.CacheTTL }

// AvatarURL implements engine.AvatarProvider.
func (s *Service) AvatarURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.avatar
}

// Reset implements engine.Service.
func (s *Service) Reset() {
	s.session.Reset()
	s.mu.Lock()
	s.userID, s.avatar = "", ""
	s.mu.Unlock()
}

// Exchange resolves the token owner through v1/user.
func (s *Service) Exchange(ctx context.Context, creds credentials.Credentials) (credentials.Session, error) {
	if creds.Key == "" || creds.Secret == "" {
		return credentials.Session{}, &remote.APIError{Service: Name, StatusCode: http.StatusUnauthorized, Message: "no access token", Auth: true}
	}

	caller := services.OAuth1Caller(ctx, s.client, s.cfg.APIKey, s.cfg.APISecret, creds.Key, creds.Secret)
	doc, err := caller.Call(ctx, remote.Request{Function: "v1/user"})
	if err != nil {
		return credentials.Session{}, err
	}
	u, err := parseUser(doc.Body, doc.StatusCode)
	if err != nil {
		return credentials.Session{}, err
	}

	return credentials.Session{
		UserID:    u.UserID,
		Nickname:  u.Name,
		AvatarURL: u.ImageURI,
		Commit: func() {
			s.mu.Lock()
			s.userID, s.avatar = u.UserID, u.ImageURI
			s.mu.Unlock()
			s.session.Set(caller)
		},
	}, nil
}

func (s *Service) user() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == "" {
		return "", engine.ErrNotConnected
	}
	return s.userID, nil
}

// Fetch reads friends' and own statuses for QueryFeed, own only for
// QueryOwn.
func (s *Service) Fetch(ctx context.Context, query string, params map[string]string) (*models.ItemSet, error) {
	if err := s.ValidateQuery(query, params); err != nil {
		return nil, err
	}
	uid, err := s.user()
	if err != nil {
		return nil, err
	}

	functions := []string{"v1/users/" + uid + "/status"}
	if query == QueryFeed {
		functions = append([]string{"v1/users/" + uid + "/friends/status"}, functions...)
	}

	set := models.NewItemSet()
	for _, fn := range functions {
		doc, err := s.session.Call(ctx, remote.Request{
			Function: fn,
			Params:   url.Values{"dateFormat": {"utc"}, "timeZone": {"0"}},
		})
		if err != nil {
			return nil, err
		}
		part, err := Parse(doc.Body, doc.StatusCode)
		if err != nil {
			return nil, err
		}
		if err := set.Merge(part); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// UpdateStatus replaces the user's status.
func (s *Service) UpdateStatus(ctx context.Context, msg string) error {
	uid, err := s.user()
	if err != nil {
		return err
	}
	_, err = s.session.Call(ctx, remote.Request{
		Function: "v1/users/" + uid + "/status",
		Method:   http.MethodPut,
		Params:   url.Values{"userId": {uid}, "status": {msg}},
	})
	return err
}
