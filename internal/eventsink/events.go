// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package eventsink

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// Kind names a presence change and is the last topic segment.
type Kind string

const (
	KindJoined   Kind = "joined"
	KindLocation Kind = "location"
	KindLeft     Kind = "left"
)

// Record is the JSON payload published for every applied presence change.
type Record struct {
	EventID   string    `json:"event_id"`
	Kind      Kind      `json:"kind"`
	ConnID    string    `json:"conn_id"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Topic returns the subject a record is published on.
func (r Record) Topic(prefix string) string {
	return prefix + "." + string(r.Kind)
}

// toMessage serializes r into a watermill message. The event id doubles as
// the message UUID so JetStream can deduplicate retries.
func (r Record) toMessage() (*message.Message, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("serialize record: %w", err)
	}
	msg := message.NewMessage(r.EventID, payload)
	msg.Metadata.Set("kind", string(r.Kind))
	msg.Metadata.Set("conn_id", r.ConnID)
	return msg, nil
}

func newRecord(kind Kind, connID string, at time.Time) Record {
	return Record{
		EventID:   watermill.NewUUID(),
		Kind:      kind,
		ConnID:    connID,
		Timestamp: at.UTC(),
	}
}
