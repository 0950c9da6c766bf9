// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpmw "github.com/tomtom215/feedloom/internal/middleware"
)

// Router wires a Handler into a chi mux.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, middleware *Middleware) *Router {
	if middleware == nil {
		middleware = NewMiddleware(DefaultMiddlewareConfig())
	}
	return &Router{handler: handler, middleware: middleware}
}

// Setup builds the HTTP handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestMetrics())
	r.Use(router.handler.latency.Middleware)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimitCustom(RateLimitHealth))
			r.Use(APISecurityHeaders())
			r.Get("/health/live", router.handler.HealthLive)
			r.Get("/health/performance", router.handler.HealthPerformance)
		})

		// The websocket upgrade must not carry JSON security headers.
		r.With(router.middleware.RateLimit()).Get("/ws", router.handler.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimit())
			r.Use(APISecurityHeaders())

			r.Get("/services", router.handler.ListServices)
			r.Route("/services/{service}", func(r chi.Router) {
				r.Get("/capabilities", router.handler.Capabilities)
				r.Post("/views", router.handler.OpenView)

				r.Group(func(r chi.Router) {
					r.Use(router.middleware.RateLimitCustom(RateLimitWrite))
					r.Post("/status", router.handler.UpdateStatus)
					r.Post("/avatar", router.handler.RequestAvatar)
					r.Post("/credentials", router.handler.UpdateCredentials)
				})
			})

			r.Get("/views", router.handler.ListViews)
			r.Route("/views/{id}", func(r chi.Router) {
				r.Delete("/", router.handler.CloseView)
				r.Post("/refresh", router.handler.RefreshView)
				r.With(httpmw.Compression).Get("/items", router.handler.ViewItems)
				r.Post("/hide", router.handler.HideItem)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, CodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	return r
}
