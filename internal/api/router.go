// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/presence-relay/internal/longpoll"
	"github.com/tomtom215/presence-relay/internal/middleware"
	"github.com/tomtom215/presence-relay/internal/presence"
)

// Router wires the relay transports and operational endpoints into chi.
type Router struct {
	relay         *presence.Relay
	websocket     http.Handler
	longPoll      *longpoll.Manager
	chiMiddleware *ChiMiddleware
	startTime     time.Time
}

// NewRouter creates a Router. longPoll may be nil when the fallback
// transport is disabled.
func NewRouter(relay *presence.Relay, ws http.Handler, longPoll *longpoll.Manager, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		relay:         relay,
		websocket:     ws,
		longPoll:      longPoll,
		chiMiddleware: mw,
		startTime:     time.Now(),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(APISecurityHeaders())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", router.Health)
		r.Get("/live", router.HealthLive)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	limitConnections := router.chiMiddleware.RateLimitConnections()

	r.With(limitConnections).Get("/ws", router.websocket.ServeHTTP)
	r.With(limitConnections).Get("/socket", router.websocket.ServeHTTP)

	if router.longPoll != nil {
		r.Mount("/poll", longpoll.NewHandler(router.longPoll).Routes(limitConnections))
	}

	return r
}
