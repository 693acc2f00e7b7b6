// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package api provides the HTTP surface of the relay using the Chi router.

Routes:

	GET    /health        status, connection count, timestamp, uptime, per-transport counts
	GET    /health/live   liveness probe
	GET    /metrics       Prometheus exposition
	GET    /ws            websocket transport (alias /socket)
	POST   /poll          open a long-poll session (when relay.longpoll_enabled)
	GET    /poll/{sid}    wait for queued events
	POST   /poll/{sid}    submit one envelope
	DELETE /poll/{sid}    close the session

Global middleware, in order: request ID (with logging context), real IP,
panic recovery, CORS (go-chi/cors), security headers, Prometheus metrics.
Connection-opening endpoints (websocket upgrade, long-poll open) are rate
limited per client IP with go-chi/httprate.

Errors produced by this package use one JSON envelope:

	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}}

The protocol itself never travels through this envelope; protocol errors are
error frames on the transport.
*/
package api
