// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status        string         `json:"status"`
	Connections   int            `json:"connections"`
	Timestamp     time.Time      `json:"timestamp"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Transports    map[string]int `json:"transports"`
}

// Health reports process status and the current connection count.
// The relay has no external dependencies to probe, so a running process is
// always "ok".
func (router *Router) Health(w http.ResponseWriter, r *http.Request) {
	total := router.relay.Size()

	transports := map[string]int{"websocket": total}
	if router.longPoll != nil {
		polling := router.longPoll.Count()
		if polling > total {
			polling = total
		}
		transports["longpoll"] = polling
		transports["websocket"] = total - polling
	}

	respondJSON(w, http.StatusOK, HealthStatus{
		Status:        "ok",
		Connections:   total,
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: time.Since(router.startTime).Seconds(),
		Transports:    transports,
	})
}

// HealthLive is the liveness probe.
func (router *Router) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
