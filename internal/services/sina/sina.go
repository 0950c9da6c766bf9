// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package sina connects to the Sina Weibo API.
package sina

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
const Name = config.ServiceSina

// Queries. QueryFeed follows the configured mode.
const (
	QueryFeed    = "feed"
	QueryOwn     = "own"
	QueryFriends = "friends"
)

const (
	functionUserTimeline    = "statuses/user_timeline.xml"
	functionFriendsTimeline = "statuses/friends_timeline.xml"
)

// Service is the Sina connector. The secret store holds the OAuth
// access token pair.
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

// New creates the connector. It fails with a ConfigError when the
// consumer key pair is missing.
func New(opts services.Options) (*Service, error) {
	if opts.Config.APIKey == "" || opts.Config.APISecret == "" {
		return nil, remote.NewConfigError(Name, "no API key configured")
	}
	cfg := opts.Config
	if cfg.Mode == "" {
		cfg.Mode = config.ModeBoth
	}
	return &Service{
		cfg:     cfg,
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
	switch query {
	case QueryFeed, QueryOwn, QueryFriends:
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
	s.avatar = ""
	s.mu.Unlock()
}

// Exchange verifies the token pair by reading the user's latest status.
func (s *Service) Exchange(ctx context.Context, creds credentials.Credentials) (credentials.Session, error) {
	if creds.Key == "" || creds.Secret == "" {
		return credentials.Session{}, &remote.APIError{Service: Name, StatusCode: http.StatusUnauthorized, Message: "no access token", Auth: true}
	}

	caller := services.OAuth1Caller(ctx, s.client, s.cfg.APIKey, s.cfg.APISecret, creds.Key, creds.Secret)
	doc, err := caller.Call(ctx, remote.Request{
		Function: functionUserTimeline,
		Params:   url.Values{"count": {"1"}},
	})
	if err != nil {
		return credentials.Session{}, err
	}
	owner, err := parseOwner(doc.Body)
	if err != nil {
		return credentials.Session{}, err
	}

	return credentials.Session{
		UserID:    owner.ID,
		Nickname:  owner.ScreenName,
		AvatarURL: owner.ProfileImageURL,
		Commit:    func() { s.install(caller, owner.ProfileImageURL) },
	}, nil
}

func (s *Service) install(caller remote.Caller, avatar string) {
	s.mu.Lock()
	s.avatar = avatar
	s.mu.Unlock()
	s.session.Set(caller)
}

// functionsFor lists the timelines fetched for query, in order.
func (s *Service) functionsFor(query string) []string {
	mode := s.cfg.Mode
	switch query {
	case QueryOwn:
		mode = config.ModeOwn
	case QueryFriends:
		mode = config.ModeFriends
	}
	switch mode {
	case config.ModeOwn:
		return []string{functionUserTimeline}
	case config.ModeFriends:
		return []string{functionFriendsTimeline}
	default:
		return []string{functionFriendsTimeline, functionUserTimeline}
	}
}

// Fetch reads the timelines of the query's mode and concatenates them.
func (s *Service) Fetch(ctx context.Context, query string, params map[string]string) (*models.ItemSet, error) {
	if err := s.ValidateQuery(query, params); err != nil {
		return nil, err
	}

	set := models.NewItemSet()
	for _, fn := range s.functionsFor(query) {
		doc, err := s.session.Call(ctx, remote.Request{
			Function: fn,
			Params:   url.Values{"count": {"10"}},
		})
		if err != nil {
			return nil, err
		}
		part, err := Parse(doc.Body)
		if err != nil {
			return nil, err
		}
		if err := set.Merge(part); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// UpdateStatus posts msg.
func (s *Service) UpdateStatus(ctx context.Context, msg string) error {
	_, err := s.session.Call(ctx, remote.Request{
		Function: "statuses/update.xml",
		Method:   http.MethodPost,
		Params:   url.Values{"status": {msg}},
	})
	return err
}
