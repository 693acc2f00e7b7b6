// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package middleware provides HTTP middleware components for the relay.

Key Components:

  - Request ID: UUID-based request tracking, propagated into the logging context
  - Prometheus Metrics: HTTP request/response instrumentation

Both are plain func(http.Handler) http.Handler and plug straight into chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

The metrics wrapper implements http.Hijacker and http.Flusher, so it can sit
in front of the websocket upgrade and long-poll endpoints. Requests that
upgrade are recorded with status 101.
*/
package middleware
