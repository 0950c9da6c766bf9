// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package youtube connects to the YouTube data feed API.
package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/tomtom215/feedloom/internal/cache"
	"github.com/tomtom215/feedloom/internal/config"
	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
	"github.com/tomtom215/feedloom/internal/services"
)

// Name is the service name.
const Name = config.ServiceYouTube

// QueryFeed is the only supported query.
const QueryFeed = "feed"

const (
	iconCacheSize = 256
	iconCacheTTL  = 24 * time.Hour
)

// Service is the YouTube connector. The secret store holds the account
// username and password, exchanged for a bearer token.
type Service struct {
	cfg     config.ServiceConfig
	client  *remote.Client
	session *services.Session
	icons   *cache.LRU[string]
}

var _ engine.Service = (*Service)(nil)

// New creates the connector. It fails with a ConfigError when the
// developer key is missing.
func New(opts services.Options) (*Service, error) {
	if opts.Config.APIKey == "" {
		return nil, remote.NewConfigError(Name, "no developer key configured")
	}
	if opts.Config.AuthURL == "" {
		return nil, remote.NewConfigError(Name, "no auth_url configured")
	}
	return &Service{
		cfg:     opts.Config,
		client:  services.NewClient(Name, opts),
		session: services.NewSession(Name, opts.Breaker),
		icons:   cache.NewLRU[string](iconCacheSize, iconCacheTTL),
	}, nil
}

// Name implements engine.Service.
func (s *Service) Name() string { return Name }

// StaticCapabilities implements engine.Service.
func (s *Service) StaticCapabilities() []models.Capability {
	return []models.Capability{models.CapCanVerifyCredentials}
}

// ValidateQuery implements engine.Service.
func (s *Service) ValidateQuery(query string, _ map[string]string) error {
	if query != QueryFeed {
		return engine.ErrInvalidQuery
	}
	return nil
}

// Reset implements engine.Service.
func (s *Service) Reset() { s.session.Reset() }

func (s *Service) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.APIKey,
		ClientSecret: s.cfg.APISecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  s.cfg.AuthURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Exchange runs the password grant against the token endpoint.
func (s *Service) Exchange(ctx context.Context, creds credentials.Credentials) (credentials.Session, error) {
	if creds.Key == "" || creds.Secret == "" {
		return credentials.Session{}, &remote.APIError{Service: Name, StatusCode: http.StatusUnauthorized, Message: "no username or password", Auth: true}
	}

	base := s.client.HTTPClient()
	conf := s.oauthConfig()
	tok, err := conf.PasswordCredentialsToken(context.WithValue(ctx, oauth2.HTTPClient, base), creds.Key, creds.Secret)
	if err != nil {
		return credentials.Session{}, tokenError(err)
	}

	hc := conf.Client(context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base), tok)
	hc.Timeout = base.Timeout
	caller := s.client.WithHTTPClient(hc)

	return credentials.Session{
		UserID:   creds.Key,
		Nickname: creds.Key,
		Commit:   func() { s.session.Set(caller) },
	}, nil
}

// tokenError maps a token endpoint failure onto the remote taxonomy.
func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		msg := re.ErrorDescription
		if msg == "" {
			msg = re.ErrorCode
		}
		status := re.Response.StatusCode
		return &remote.APIError{
			Service:    Name,
			StatusCode: status,
			Message:    msg,
			Auth:       status == http.StatusBadRequest || status == http.StatusUnauthorized,
		}
	}
	return &remote.TransportError{Service: Name, Op: "token", Err: err}
}

func (s *Service) headers() http.Header {
	h := http.Header{}
	h.Set("X-GData-Key", "key="+s.cfg.APIKey)
	return h
}

// Fetch reads the new subscription videos of the signed-in user.
func (s *Service) Fetch(ctx context.Context, query string, params map[string]string) (*models.ItemSet, error) {
	if err := s.ValidateQuery(query, params); err != nil {
		return nil, err
	}
	doc, err := s.session.Call(ctx, remote.Request{
		Function: "users/default/newsubscriptionvideos",
		Params:   url.Values{"max-results": {"10"}, "alt": {"rss"}},
		Headers:  s.headers(),
	})
	if err != nil {
		return nil, err
	}
	set, err := Parse(doc.Body)
	if err != nil {
		return nil, err
	}

	for _, item := range set.Items() {
		if icon := s.authorIcon(ctx, item.Get(models.FieldAuthor)); icon != "" {
			item.AddFetch(models.FieldAuthorIcon, icon)
		}
	}
	return set, nil
}

// authorIcon resolves and memoises the icon of a channel. Failures yield
// "" and are retried on the next fetch.
func (s *Service) authorIcon(ctx context.Context, author string) string {
	if author == "" {
		return ""
	}
	if icon, ok := s.icons.Get(author); ok {
		return icon
	}

	doc, err := s.session.Call(ctx, remote.Request{
		Function: "users/" + url.PathEscape(author),
		Headers:  s.headers(),
	})
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("author", author).Msg("Author icon lookup failed")
		return ""
	}
	icon, err := parseUserIcon(doc.Body)
	if err != nil || icon == "" {
		return ""
	}
	s.icons.Add(author, icon)
	return icon
}
