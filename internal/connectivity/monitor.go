// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package connectivity tracks whether the network is reachable and tells
// listeners when that changes.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/metrics"
)

// Listener receives online/offline edges.
type Listener func(online bool)

// Config configures a Monitor.
type Config struct {
	// CheckURL is probed with HEAD. Empty means always online.
	CheckURL string
	// Interval between probes. Default 30s.
	Interval time.Duration
	// Timeout for one probe. Default 10s.
	Timeout time.Duration
	// HTTPClient overrides the probe client.
	HTTPClient *http.Client
}

// Monitor probes connectivity and emits edges. The first observation
// always emits.
type Monitor struct {
	cfg    Config
	client *http.Client

	mu        sync.Mutex
	known     bool
	online    bool
	listeners []Listener

	notifyMu sync.Mutex
}

// NewMonitor creates a monitor. Call Serve to start probing.
func NewMonitor(cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Monitor{cfg: cfg, client: client}
}

// OnChange registers a listener.
func (m *Monitor) OnChange(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Online returns the last known state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set forces the state, emitting an edge if it changed.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	changed := !m.known || m.online != online
	m.known = true
	m.online = online
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if !changed {
		return
	}

	metrics.SetOnline(online)
	logging.Info().Str("component", "connectivity").Bool("online", online).Msg("Connectivity changed")

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	for _, l := range listeners {
		l(online)
	}
}

// Probe runs a single check and returns the observed state.
func (m *Monitor) Probe(ctx context.Context) bool {
	if m.cfg.CheckURL == "" {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.cfg.CheckURL, http.NoBody)
	if err != nil {
		logging.Warn().Err(err).Str("url", m.cfg.CheckURL).Msg("Invalid connectivity check URL")
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		logging.Debug().Err(err).Msg("Connectivity probe failed")
		return false
	}
	_ = resp.Body.Close()
	// Any HTTP answer proves reachability.
	return true
}

// Serve implements suture.Service.
func (m *Monitor) Serve(ctx context.Context) error {
	m.Set(m.Probe(ctx))
	if m.cfg.CheckURL == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			online := m.Probe(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.Set(online)
		}
	}
}

// String implements fmt.Stringer.
func (m *Monitor) String() string {
	return "connectivity-monitor"
}
