// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package presence

import (
	"errors"
	"sort"
	"sync"

	"github.com/tomtom215/presence-relay/internal/validation"
)

var (
	// ErrDuplicateConnection is returned by Register when the id was already
	// present. The entry has been overwritten.
	ErrDuplicateConnection = errors.New("presence: duplicate connection id")

	// ErrUnknownConnection is returned when an operation names an id that is
	// not registered. Nothing was changed.
	ErrUnknownConnection = errors.New("presence: unknown connection id")
)

// Location is a reported geographic position in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Validate checks that both coordinates are within range.
// Returns a *validation.RequestValidationError on failure.
func (l Location) Validate() error {
	if verr := validation.ValidateStruct(&l); verr != nil {
		return verr
	}
	return nil
}

// Entry is one registered connection as returned by Snapshot.
// Location is nil until the connection has reported a position.
type Entry struct {
	ID       string
	Location *Location
}

// Registry maps live connection ids to their last reported location.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Location
	located int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Location)}
}

// Register inserts id with no location. If id is already present the entry
// is reset and ErrDuplicateConnection is returned; exactly one entry remains.
func (r *Registry) Register(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.entries[id]
	if exists && prev != nil {
		r.located--
	}
	r.entries[id] = nil

	if exists {
		return ErrDuplicateConnection
	}
	return nil
}

// UpdateLocation sets the last known location for id.
// An absent id is never re-added; ErrUnknownConnection is returned instead.
func (r *Registry) UpdateLocation(id string, loc Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.entries[id]
	if !exists {
		return ErrUnknownConnection
	}
	if prev == nil {
		r.located++
	}
	r.entries[id] = &loc
	return nil
}

// Remove deletes id. It reports whether an entry was removed and is safe to
// call repeatedly.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.entries[id]
	if !exists {
		return false
	}
	if prev != nil {
		r.located--
	}
	delete(r.entries, id)
	return true
}

// Get returns the entry for id.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{ID: id, Location: copyLocation(loc)}, true
}

// Size returns the number of registered connections.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Located returns the number of connections with a known location.
func (r *Registry) Located() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.located
}

// Snapshot returns a copy of every entry, sorted by id.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.entries))
	for id, loc := range r.entries {
		entries = append(entries, Entry{ID: id, Location: copyLocation(loc)})
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func copyLocation(loc *Location) *Location {
	if loc == nil {
		return nil
	}
	c := *loc
	return &c
}
