// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/view"
)

// Registry owns one Engine per enabled service.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// Register adds e. Registering a name twice is an error.
func (r *Registry) Register(e *Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[e.Name()]; exists {
		return fmt.Errorf("service %q already registered", e.Name())
	}
	r.engines[e.Name()] = e
	return nil
}

// Get returns the engine of a service.
func (r *Registry) Get(name string) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return e, nil
}

// Engines returns every engine sorted by name.
func (r *Registry) Engines() []*Engine {
	r.mu.RLock()
	out := make([]*Engine, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Services describes every engine.
func (r *Registry) Services() []models.ServiceInfo {
	engines := r.Engines()
	out := make([]models.ServiceInfo, 0, len(engines))
	for _, e := range engines {
		out = append(out, e.Info())
	}
	return out
}

// FindView locates an open view by handle across all services.
func (r *Registry) FindView(id string) (*Engine, *view.View, error) {
	for _, e := range r.Engines() {
		if v, ok := e.View(id); ok {
			return e, v, nil
		}
	}
	return nil, nil, ErrViewNotFound
}

// OpenView opens a view on the named service.
func (r *Registry) OpenView(service, query string, params map[string]string) (models.ViewInfo, error) {
	e, err := r.Get(service)
	if err != nil {
		return models.ViewInfo{}, err
	}
	v, err := e.OpenView(query, params)
	if err != nil {
		return models.ViewInfo{}, err
	}
	return ViewInfo(v), nil
}

// CloseView closes a view by handle, whichever service owns it.
func (r *Registry) CloseView(id string) error {
	e, _, err := r.FindView(id)
	if err != nil {
		return err
	}
	return e.CloseView(id)
}

// Views describes every open view.
func (r *Registry) Views() []models.ViewInfo {
	var out []models.ViewInfo
	for _, e := range r.Engines() {
		for _, v := range e.Views() {
			out = append(out, ViewInfo(v))
		}
	}
	return out
}

// SetOnline forwards a connectivity edge to every engine.
func (r *Registry) SetOnline(ctx context.Context, online bool) {
	for _, e := range r.Engines() {
		e.SetOnline(ctx, online)
	}
}

// Close stops every view of every engine.
func (r *Registry) Close() {
	for _, e := range r.Engines() {
		e.Close()
	}
}

// ViewInfo describes v for the API.
func ViewInfo(v *view.View) models.ViewInfo {
	return models.ViewInfo{
		ID:      v.ID(),
		Service: v.Service(),
		Query:   v.Query(),
		Params:  v.Params(),
		Running: v.Running(),
	}
}
