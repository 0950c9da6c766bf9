// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package plurk connects to the Plurk API. Plurk authenticates with a
// username and password and keeps the session in a cookie.
package plurk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
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
const Name = config.ServicePlurk

// QueryFeed is the only supported query.
const QueryFeed = "feed"

// Service is the Plurk connector.
type Service struct {
	cfg     config.ServiceConfig
	client  *remote.Client
	session *services.Session

	mu     sync.RWMutex
	avatar string
}

var (
	_ engine.Service         = (*Service)(nil)
	_ engine.Cacheable       = (*Service)(nil)
	_ engine.StatusUpdatable = (*Service)(nil)
	_ engine.AvatarProvider  = (*Service)(nil)
)

// New creates the connector. It fails with a ConfigError when the API
// key is missing.
func New(opts services.Options) (*Service, error) {
	if opts.Config.APIKey == "" {
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
		models.CapCanGeotag,
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
	s.avatar = ""
	s.mu.Unlock()
}

// Exchange logs in with the stored username and password.
func (s *Service) Exchange(ctx context.Context, creds credentials.Credentials) (credentials.Session, error) {
	if creds.Key == "" || creds.Secret == "" {
		return credentials.Session{}, &remote.APIError{Service: Name, StatusCode: http.StatusUnauthorized, Message: "no username or password", Auth: true}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return credentials.Session{}, fmt.Errorf("create cookie jar: %w", err)
	}
	hc := *s.client.HTTPClient()
	hc.Jar = jar
	caller := s.client.WithHTTPClient(&hc)

	doc, err := caller.Call(ctx, remote.Request{
		Function: "Users/login",
		Method:   http.MethodPost,
		Params: url.Values{
			"api_key":  {s.cfg.APIKey},
			"username": {creds.Key},
			"password": {creds.Secret},
		},
	})
	if err != nil {
		// Plurk answers a bad login with 400 and an error_text.
		var ae *remote.APIError
		if errors.As(err, &ae) && ae.StatusCode == http.StatusBadRequest {
			ae.Auth = true
		}
		return credentials.Session{}, err
	}

	u, err := parseLogin(doc.Body)
	if err != nil {
		return credentials.Session{}, err
	}
	uid := strconv.FormatInt(u.UID, 10)
	avatar := AvatarURL(uid, u.Avatar, u.HasProfileImage)

	return credentials.Session{
		UserID:    uid,
		Nickname:  u.NickName,
		AvatarURL: avatar,
		Commit: func() {
			s.mu.Lock()
			s.avatar = avatar
			s.mu.Unlock()
			s.session.Set(caller)
		},
	}, nil
}

// Fetch implements engine.Fetchable.
func (s *Service) Fetch(ctx context.Context, query string, params map[string]string) (*models.ItemSet, error) {
	if err := s.ValidateQuery(query, params); err != nil {
		return nil, err
	}
	doc, err := s.session.Call(ctx, remote.Request{
		Function: "Timeline/getPlurks",
		Params: url.Values{
			"api_key": {s.cfg.APIKey},
			"limit":   {"20"},
		},
	})
	if err != nil {
		return nil, err
	}
	return Parse(doc.Body)
}

// UpdateStatus posts msg as a new plurk.
func (s *Service) UpdateStatus(ctx context.Context, msg string) error {
	_, err := s.session.Call(ctx, remote.Request{
		Function: "Timeline/plurkAdd",
		Method:   http.MethodPost,
		Params: url.Values{
			"api_key":   {s.cfg.APIKey},
			"content":   {msg},
			"qualifier": {":"},
		},
	})
	return err
}
