// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

// Package protocol defines the JSON wire format shared by the websocket and
// long-poll transports.
//
// Every frame is an envelope:
//
//	{"type": "send-location", "data": {"latitude": 51.5, "longitude": -0.12}}
//
// Client to server: send-location, ping.
// Server to client: received-location {id, latitude, longitude},
// user-disconnected {id}, total-users {count}, pong, error {code, message}.
package protocol
