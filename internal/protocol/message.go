// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package protocol

import (
	"github.com/goccy/go-json"
)

// Message types for presence communication
const (
	// Client to server
	TypeSendLocation = "send-location"
	TypePing         = "ping"

	// Server to client
	TypeReceivedLocation = "received-location"
	TypeUserDisconnected = "user-disconnected"
	TypeTotalUsers       = "total-users"
	TypePong             = "pong"
	TypeError            = "error"
)

// Error codes carried in error frames
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeMalformed   = "MALFORMED_MESSAGE"
	CodeUnknownType = "UNKNOWN_TYPE"
	CodeRateLimited = "RATE_LIMITED"
)

// Envelope is the frame every message travels in.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// LocationPayload is the data of a send-location message.
// Pointers distinguish a missing coordinate from 0.
type LocationPayload struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

// ReceivedLocationData is the data of a received-location message.
type ReceivedLocationData struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UserDisconnectedData is the data of a user-disconnected message.
type UserDisconnectedData struct {
	ID string `json:"id"`
}

// TotalUsersData is the data of a total-users message.
type TotalUsersData struct {
	Count int `json:"count"`
}

// ErrorData is the data of an error message. Error frames go only to the
// client that sent the offending message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
