// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package services

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/tomtom215/feedloom/internal/config"
	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/remote"
)

// Options are the settings every connector is built from.
type Options struct {
	Config config.ServiceConfig
	// HTTPClient is the base transport. Default: 30s timeout client.
	HTTPClient *http.Client
	Breaker    remote.BreakerSettings
}

// NewClient builds the unauthenticated client of a service.
func NewClient(name string, opts Options) *remote.Client {
	return remote.NewClient(remote.ClientConfig{
		Service:           name,
		BaseURL:           opts.Config.BaseURL,
		Timeout:           30 * time.Second,
		RequestsPerSecond: opts.Config.RequestsPerSecond,
		Burst:             opts.Config.Burst,
		HTTPClient:        opts.HTTPClient,
	})
}

// Session holds the authenticated caller of a connector.
type Session struct {
	mu      sync.RWMutex
	current remote.Caller
	breaker *remote.CircuitBreakerClient
}

// NewSession creates a disconnected session.
func NewSession(name string, settings remote.BreakerSettings) *Session {
	s := &Session{}
	s.breaker = remote.NewCircuitBreakerClient(name, remote.CallerFunc(s.forward), settings)
	return s
}

// Set installs the authenticated caller.
func (s *Session) Set(c remote.Caller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}

// Reset drops the authenticated caller.
func (s *Session) Reset() {
	s.Set(nil)
}

// Connected reports whether a caller is installed.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Call performs req through the circuit breaker.
func (s *Session) Call(ctx context.Context, req remote.Request) (*remote.Document, error) {
	if !s.Connected() {
		return nil, engine.ErrNotConnected
	}
	return s.breaker.Call(ctx, req)
}

func (s *Session) forward(ctx context.Context, req remote.Request) (*remote.Document, error) {
	s.mu.RLock()
	c := s.current
	s.mu.RUnlock()
	if c == nil {
		return nil, engine.ErrNotConnected
	}
	return c.Call(ctx, req)
}

// OAuth1Caller returns base signing every request with the consumer pair
// and the access token stored as creds.
func OAuth1Caller(ctx context.Context, base *remote.Client, consumerKey, consumerSecret string, token, tokenSecret string) *remote.Client {
	hc := remote.OAuth1Client(context.WithoutCancel(ctx), base.HTTPClient(), consumerKey, consumerSecret, token, tokenSecret)
	return base.WithHTTPClient(hc)
}
