// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package longpoll

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/presence"
	"github.com/tomtom215/presence-relay/internal/protocol"
)

// OpenResponse is returned by POST /poll.
type OpenResponse struct {
	SID            string `json:"sid"`
	PingIntervalMS int64  `json:"ping_interval_ms"`
	PingTimeoutMS  int64  `json:"ping_timeout_ms"`
}

type errorBody struct {
	Success bool      `json:"success"`
	Error   errorInfo `json:"error"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler serves the long-poll endpoints.
type Handler struct {
	manager *Manager
}

// NewHandler creates a Handler for m.
func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

// Routes returns a router with the long-poll endpoints, for mounting at /poll.
// openMiddleware wraps session creation only, typically a per-IP rate limit.
func (h *Handler) Routes(openMiddleware ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(openMiddleware...).Post("/", h.Open)
	r.Get("/{sid}", h.Poll)
	r.Post("/{sid}", h.Submit)
	r.Delete("/{sid}", h.Close)
	return r
}

// Open handles POST /poll.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Open()
	if err != nil {
		if errors.Is(err, presence.ErrRelayClosed) || errors.Is(err, ErrSessionClosed) {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "relay is shutting down")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("long-poll open failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not open session")
		return
	}

	logging.Ctx(logging.ContextWithConnID(r.Context(), s.ID())).Debug().
		Str("remote_addr", r.RemoteAddr).Msg("long-poll session opened")

	opts := h.manager.Options()
	writeJSON(w, http.StatusOK, OpenResponse{
		SID:            s.ID(),
		PingIntervalMS: opts.PingInterval.Milliseconds(),
		PingTimeoutMS:  opts.PingTimeout.Milliseconds(),
	})
}

// Poll handles GET /poll/{sid}. The body is a JSON array of envelopes,
// empty when the wait elapsed with nothing queued.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	frames, err := h.manager.Poll(r.Context(), chi.URLParam(r, "sid"))
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown or closed session")
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; nobody is left to read a response.
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("long-poll poll failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "poll failed")
		return
	}

	body, err := protocol.EncodeBatch(frames)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "poll failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Submit handles POST /poll/{sid} with one envelope as the body.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.manager.Options().MaxMessageSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "message exceeds the size limit")
		return
	}

	err = h.manager.Submit(chi.URLParam(r, "sid"), raw)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown or closed session")
	case errors.Is(err, ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, protocol.CodeRateLimited, "location updates are arriving too fast")
	default:
		// Decode and validation failures; the session stays open.
		code, message := protocol.Classify(err)
		writeError(w, http.StatusBadRequest, code, message)
	}
}

// Close handles DELETE /poll/{sid}.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.CloseSession(chi.URLParam(r, "sid")); err != nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown or closed session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode long-poll response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorInfo{Code: code, Message: message}})
}
