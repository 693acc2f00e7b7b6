// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package presence

// EventType enumerates the events the relay emits to clients.
type EventType string

const (
	// EventReceivedLocation carries a peer's new location. Never delivered to that peer.
	EventReceivedLocation EventType = "received-location"

	// EventUserDisconnected announces that a connection left.
	EventUserDisconnected EventType = "user-disconnected"

	// EventTotalUsers carries the registry size at the moment of emission.
	EventTotalUsers EventType = "total-users"
)

// Event is a single outbound presence event. Only the fields relevant to
// Type are set.
type Event struct {
	Type     EventType
	ID       string
	Location Location
	Count    int
}

// ReceivedLocation builds a received-location event for id.
func ReceivedLocation(id string, loc Location) Event {
	return Event{Type: EventReceivedLocation, ID: id, Location: loc}
}

// UserDisconnected builds a user-disconnected event for id.
func UserDisconnected(id string) Event {
	return Event{Type: EventUserDisconnected, ID: id}
}

// TotalUsers builds a total-users event.
func TotalUsers(count int) Event {
	return Event{Type: EventTotalUsers, Count: count}
}

// ConnState is the per-connection protocol state.
type ConnState int32

const (
	// StateConnecting is set from accept until the connection is registered.
	StateConnecting ConnState = iota
	// StateActive accepts location updates.
	StateActive
	// StateClosed is terminal.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
