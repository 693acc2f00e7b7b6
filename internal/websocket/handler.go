// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package websocket

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/metrics"
	"github.com/tomtom215/presence-relay/internal/presence"
)

// Handler upgrades HTTP requests to presence websocket connections.
type Handler struct {
	relay    *presence.Relay
	opts     Options
	origins  []string
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler. allowedOrigins is the CORS origin list; "*"
// allows any origin.
func NewHandler(relay *presence.Relay, opts Options, allowedOrigins []string) *Handler {
	h := &Handler{
		relay:   relay,
		opts:    opts,
		origins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// ServeHTTP handles GET /ws.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		metrics.RecordTransportError(metrics.TransportWebSocket, "upgrade")
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.relay, conn, h.opts)
	ctx := logging.ContextWithConnID(r.Context(), client.ID())
	if err := client.Start(); err != nil {
		if errors.Is(err, presence.ErrRelayClosed) {
			logging.Ctx(ctx).Debug().Msg("websocket rejected: relay shutting down")
			return
		}
		logging.Ctx(ctx).Error().Err(err).Msg("websocket join failed")
		return
	}
	logging.Ctx(ctx).Debug().Str("remote_addr", r.RemoteAddr).Msg("websocket connected")
}

// checkOrigin validates websocket connection origins.
//
// Browsers always send Origin. A missing Origin is accepted only when every
// origin is allowed, so non-browser clients work in the default setup.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	wildcard := false
	for _, allowed := range h.origins {
		if allowed == "*" {
			wildcard = true
			break
		}
	}

	if origin == "" {
		if !wildcard {
			logging.Warn().Msg("websocket connection rejected: missing Origin header")
		}
		return wildcard
	}
	if wildcard {
		return true
	}

	for _, allowed := range h.origins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue strips control characters to prevent log injection.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
