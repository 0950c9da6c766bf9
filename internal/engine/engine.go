// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package engine

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/metrics"
	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
	"github.com/tomtom215/feedloom/internal/view"
)

// Banlist filters and records permanently hidden items.
type Banlist interface {
	Predicate(service string) func(id string) bool
	Ban(ctx context.Context, service, id string) error
}

// ItemCache is the persistent item cache with per-service lifetimes.
type ItemCache interface {
	view.Cache
	SetTTL(service string, ttl time.Duration)
}

// Config configures an Engine.
type Config struct {
	Service Service
	Secrets credentials.SecretSource
	// Cache is only used when Service is Cacheable.
	Cache   ItemCache
	Banlist Banlist
	Bus     *Bus

	RefreshInterval time.Duration
	AvatarDir       string
	// HTTPClient downloads avatars. Default http.DefaultClient.
	HTTPClient *http.Client
}

// Engine is the per-service aggregation engine.
type Engine struct {
	svc        Service
	machine    *credentials.Machine
	cache      view.Cache
	banlist    Banlist
	bus        *Bus
	interval   time.Duration
	avatarDir  string
	httpClient *http.Client

	baseCtx context.Context
	cancel  context.CancelFunc

	mu    sync.RWMutex
	views map[string]*view.View
}

// New creates an engine. The service starts Offline.
func New(cfg Config) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		svc:        cfg.Service,
		banlist:    cfg.Banlist,
		bus:        cfg.Bus,
		interval:   cfg.RefreshInterval,
		avatarDir:  cfg.AvatarDir,
		httpClient: cfg.HTTPClient,
		baseCtx:    ctx,
		cancel:     cancel,
		views:      make(map[string]*view.View),
	}
	if e.httpClient == nil {
		e.httpClient = http.DefaultClient
	}
	if c, ok := cfg.Service.(Cacheable); ok && cfg.Cache != nil {
		cfg.Cache.SetTTL(cfg.Service.Name(), c.CacheTTL())
		e.cache = cfg.Cache
	}

	e.machine = credentials.NewMachine(credentials.Config{
		Service:            cfg.Service.Name(),
		Secrets:            cfg.Secrets,
		Exchanger:          cfg.Service,
		StaticCapabilities: cfg.Service.StaticCapabilities(),
		Reset:              cfg.Service.Reset,
	})
	e.machine.OnTransition(e.onTransition)
	return e
}

// Name returns the service name.
func (e *Engine) Name() string { return e.svc.Name() }

// Service returns the connector.
func (e *Engine) Service() Service { return e.svc }

// State returns the credential state.
func (e *Engine) State() credentials.State { return e.machine.State() }

// Capabilities returns the static and dynamic capabilities.
func (e *Engine) Capabilities() models.CapabilitySet { return e.machine.Capabilities() }

// SetOnline applies a connectivity edge.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	e.machine.SetOnline(ctx, online)
}

// CredentialsUpdated forces a fresh credential exchange.
func (e *Engine) CredentialsUpdated(ctx context.Context) {
	e.machine.CredentialsUpdated(ctx)
}

// onTransition fans a credential transition out to the open views.
func (e *Engine) onTransition(tr credentials.Transition) {
	authorized := tr.To == credentials.StateAuthorized

	e.publish(Event{
		Type:         EventCapabilitiesChanged,
		Service:      tr.Service,
		Capabilities: tr.Capabilities.Strings(),
	})

	views := e.openViews()

	if tr.UserChanged {
		logging.Info().Str("service", tr.Service).Msg("Authenticated user changed, clearing items")
		if len(views) == 0 && e.cache != nil {
			if err := e.cache.DropAll(tr.Service); err != nil {
				logging.Warn().Err(err).Str("service", tr.Service).Msg("Failed to drop cache")
			}
		}
		for _, v := range views {
			v.UserChanged()
		}
		e.publish(Event{Type: EventUserChanged, Service: tr.Service})
	}

	for _, v := range views {
		v.SetAuthorized(authorized)
	}
}

func (e *Engine) openViews() []*view.View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*view.View, 0, len(e.views))
	for _, v := range e.views {
		out = append(out, v)
	}
	return out
}

func (e *Engine) publish(ev Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ev); err != nil {
		logging.Warn().Err(err).Str("service", ev.Service).Str("event", ev.Type).Msg("Failed to publish event")
	}
}

// OpenView validates the query, then creates and starts a view.
func (e *Engine) OpenView(query string, params map[string]string) (*view.View, error) {
	if err := e.svc.ValidateQuery(query, params); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	name := e.svc.Name()

	var banned func(string) bool
	if e.banlist != nil {
		banned = e.banlist.Predicate(name)
	}

	v := view.New(view.Config{
		ID:       id,
		Service:  name,
		Query:    query,
		Params:   params,
		Interval: e.interval,
		Fetcher:  view.FetcherFunc(e.svc.Fetch),
		Cache:    e.cache,
		Banned:   banned,
		Publish: func(set *models.ItemSet) {
			e.publish(Event{Type: EventRefreshed, Service: name, ViewID: id, Query: query, Items: set})
		},
		OnAuthError: e.machine.MarkUnauthorized,
		Authorized:  e.machine.State() == credentials.StateAuthorized,
		Context:     e.baseCtx,
	})

	e.mu.Lock()
	e.views[id] = v
	metrics.OpenViews.WithLabelValues(name).Set(float64(len(e.views)))
	e.mu.Unlock()

	if err := v.Start(); err != nil {
		return nil, err
	}
	// A transition may have landed between creation and registration.
	v.SetAuthorized(e.machine.State() == credentials.StateAuthorized)

	logging.Info().Str("service", name).Str("view_id", id).Str("query", query).Msg("Opened view")
	return v, nil
}

// View returns an open view.
func (e *Engine) View(id string) (*view.View, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.views[id]
	return v, ok
}

// Views returns the open views sorted by id.
func (e *Engine) Views() []*view.View {
	views := e.openViews()
	sort.Slice(views, func(i, j int) bool { return views[i].ID() < views[j].ID() })
	return views
}

// CloseView stops and forgets a view.
func (e *Engine) CloseView(id string) error {
	e.mu.Lock()
	v, ok := e.views[id]
	if ok {
		delete(e.views, id)
		metrics.OpenViews.WithLabelValues(e.svc.Name()).Set(float64(len(e.views)))
	}
	e.mu.Unlock()
	if !ok {
		return ErrViewNotFound
	}

	if v.Running() {
		_ = v.Stop()
	}
	logging.Info().Str("service", e.svc.Name()).Str("view_id", id).Msg("Closed view")
	return nil
}

// RefreshView triggers an out-of-band fetch.
func (e *Engine) RefreshView(id string) error {
	v, ok := e.View(id)
	if !ok {
		return ErrViewNotFound
	}
	return v.Refresh()
}

// HideItem retracts uid from the view. With persist the id is also
// banned, so later fetches filter it.
func (e *Engine) HideItem(ctx context.Context, id, uid string, persist bool) error {
	v, ok := e.View(id)
	if !ok {
		return ErrViewNotFound
	}
	if persist && e.banlist != nil {
		if err := e.banlist.Ban(ctx, e.svc.Name(), uid); err != nil {
			return fmt.Errorf("persist ban: %w", err)
		}
	}
	v.HideItem(uid)
	return nil
}

// UpdateStatus posts msg and emits status-updated.
func (e *Engine) UpdateStatus(ctx context.Context, msg string) error {
	su, ok := e.svc.(StatusUpdatable)
	if !ok || !e.machine.Capabilities().Has(models.CapCanUpdateStatus) {
		return ErrUnsupported
	}

	err := su.UpdateStatus(ctx, msg)
	success := err == nil
	e.publish(Event{Type: EventStatusUpdated, Service: e.svc.Name(), Success: &success})
	if err != nil {
		logging.Warn().Err(err).Str("service", e.svc.Name()).Msg("Status update failed")
		if remote.IsAuthError(err) {
			e.machine.MarkUnauthorized(err)
		}
		return err
	}
	return nil
}

// RequestAvatar downloads the session user's avatar and emits
// avatar-retrieved.
func (e *Engine) RequestAvatar(ctx context.Context) (string, error) {
	ap, ok := e.svc.(AvatarProvider)
	if !ok || !e.machine.Capabilities().Has(models.CapCanRequestAvatar) {
		return "", ErrUnsupported
	}
	avatarURL := ap.AvatarURL()
	if avatarURL == "" {
		return "", ErrNotConnected
	}

	path, err := remote.Download(ctx, e.httpClient, e.svc.Name(), avatarURL, e.avatarDir)
	if err != nil {
		logging.Warn().Err(err).Str("service", e.svc.Name()).Msg("Avatar download failed")
		return "", err
	}
	e.publish(Event{Type: EventAvatarRetrieved, Service: e.svc.Name(), Path: path})
	return path, nil
}

// Info describes the engine for the API.
func (e *Engine) Info() models.ServiceInfo {
	e.mu.RLock()
	n := len(e.views)
	e.mu.RUnlock()
	return models.ServiceInfo{
		Name:         e.svc.Name(),
		State:        e.machine.State().String(),
		Capabilities: e.machine.Capabilities().Strings(),
		OpenViews:    n,
	}
}

// Close stops every view. In-flight fetches finish but are not
// published.
func (e *Engine) Close() {
	for _, v := range e.openViews() {
		if v.Running() {
			_ = v.Stop()
		}
	}
	e.cancel()
}

// Wait blocks until pending credential exchanges and fetches finish.
func (e *Engine) Wait() {
	e.machine.Wait()
	for _, v := range e.openViews() {
		v.Wait()
	}
}

// Serve implements suture.Service. The engine itself is event driven;
// Serve only ties its lifetime to ctx.
func (e *Engine) Serve(ctx context.Context) error {
	<-ctx.Done()
	e.Close()
	return ctx.Err()
}

// String implements fmt.Stringer.
func (e *Engine) String() string {
	return "engine-" + e.svc.Name()
}
