// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pizzahunt/internal/middleware"
)

// Version is reported by the health endpoints. Set at build time.
var Version = "dev"

// Router wires the handler into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for h. Rate limit and CORS settings come from
// the handler's security config.
func NewRouter(h *Handler) *Router {
	return &Router{
		handler:       h,
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFrom(&h.config.Security)),
	}
}

// SetupChi builds the server mux.
//
// Health endpoints are left out of rate limiting and request metrics since
// every client agent polls /api/health/live.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if len(router.handler.config.Security.TrustedProxies) > 0 {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.AccessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})

	r.Route("/api/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("api"))
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.MaxBodyBytes(router.handler.config.Security.MaxBodyBytes))

		r.Route("/pizzas", func(r chi.Router) {
			r.Get("/", router.handler.ListPizzas)
			r.Post("/", router.handler.CreatePizza)
			r.Get("/{id}", router.handler.GetPizza)
			r.Put("/{id}", router.handler.UpdatePizza)
			r.Delete("/{id}", router.handler.DeletePizza)
			r.Post("/{pizzaId}/comments", router.handler.AddComment)
		})

		r.Route("/comments/{commentId}", func(r chi.Router) {
			r.Delete("/", router.handler.RemoveComment)
			r.Post("/replies", router.handler.AddReply)
			r.Delete("/replies/{replyId}", router.handler.RemoveReply)
		})
	})

	r.With(middleware.PrometheusMetrics).Get("/ws", router.handler.WebSocket)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
