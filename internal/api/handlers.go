// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/logging"
	httpmw "github.com/tomtom215/feedloom/internal/middleware"
	"github.com/tomtom215/feedloom/internal/models"
	ws "github.com/tomtom215/feedloom/internal/websocket"
)

const (
	latencyWindow = 1000
	slowRequest   = 2 * time.Second
)

// CredentialStore persists service credentials.
type CredentialStore interface {
	Put(service string, creds credentials.Credentials) error
}

// Handler serves the presentation operations of a registry.
type Handler struct {
	registry  *engine.Registry
	secrets   CredentialStore
	wsHub     *ws.Hub
	latency   *httpmw.LatencyMonitor
	startTime time.Time
}

// NewHandler creates a handler. secrets and hub may be nil; the
// credentials and websocket endpoints then answer 503.
func NewHandler(registry *engine.Registry, secrets CredentialStore, hub *ws.Hub) *Handler {
	return &Handler{
		registry:  registry,
		secrets:   secrets,
		wsHub:     hub,
		latency:   httpmw.NewLatencyMonitor(latencyWindow, slowRequest),
		startTime: time.Now(),
	}
}

// engineFor resolves the {service} URL parameter.
func (h *Handler) engineFor(w http.ResponseWriter, r *http.Request) (*engine.Engine, bool) {
	e, err := h.registry.Get(chi.URLParam(r, "service"))
	if err != nil {
		respondEngineError(w, r, err)
		return nil, false
	}
	return e, true
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":   "alive",
		"uptime_s": int64(time.Since(h.startTime).Seconds()),
		"services": len(h.registry.Engines()),
	})
}

// HealthPerformance reports per-route latency over the recent window.
func (h *Handler) HealthPerformance(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.latency.Stats())
}

// ListServices describes every enabled service.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.registry.Services())
}

// Capabilities reports the capability set of one service.
func (h *Handler) Capabilities(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"service":      e.Name(),
		"state":        e.State().String(),
		"capabilities": e.Capabilities().Strings(),
	})
}

// OpenView opens an item view on a service.
func (h *Handler) OpenView(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req OpenViewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	v, err := e.OpenView(req.Query, req.Params)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("service", e.Name()).
		Str("view_id", v.ID()).
		Str("query", req.Query).
		Msg("View opened")
	respondSuccess(w, http.StatusCreated, engine.ViewInfo(v))
}

// ListViews describes every open view.
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	views := h.registry.Views()
	if views == nil {
		views = []models.ViewInfo{}
	}
	respondSuccess(w, http.StatusOK, views)
}

// CloseView stops and forgets a view.
func (h *Handler) CloseView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.CloseView(id); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"id": id})
}

// RefreshView triggers an out-of-band fetch. The result arrives as a
// refreshed event.
func (h *Handler) RefreshView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, _, err := h.registry.FindView(id)
	if err == nil {
		err = e.RefreshView(id)
	}
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusAccepted, map[string]string{"id": id})
}

// ViewItems returns the items a view last published.
func (h *Handler) ViewItems(w http.ResponseWriter, r *http.Request) {
	_, v, err := h.registry.FindView(chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	items := v.Items()
	if items == nil {
		items = models.NewItemSet()
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"view":  engine.ViewInfo(v),
		"items": items,
	})
}

// HideItem retracts an item from a view, banning it when persist is set.
func (h *Handler) HideItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req HideItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	e, _, err := h.registry.FindView(id)
	if err == nil {
		err = e.HideItem(r.Context(), id, req.ID, req.Persist)
	}
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"id": req.ID, "persisted": req.Persist})
}

// UpdateStatus posts a status message to a service.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := e.UpdateStatus(r.Context(), req.Message); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"success": true})
}

// RequestAvatar downloads the session user's avatar.
func (h *Handler) RequestAvatar(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	path, err := e.RequestAvatar(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"path": path})
}

// UpdateCredentials stores new credentials and restarts authentication.
func (h *Handler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	if h.secrets == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeConfig, "secret store unavailable", nil)
		return
	}
	e, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req CredentialsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.secrets.Put(e.Name(), credentials.Credentials{Key: req.Key, Secret: req.Secret}); err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to store credentials", err)
		return
	}
	e.CredentialsUpdated(r.Context())
	logging.Ctx(r.Context()).Info().Str("service", e.Name()).Msg("Credentials updated")
	respondSuccess(w, http.StatusAccepted, map[string]string{"service": e.Name(), "state": e.State().String()})
}

// WebSocket upgrades to the push channel.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "websocket service unavailable", nil)
		return
	}
	ws.ServeWS(h.wsHub, w, r)
}
