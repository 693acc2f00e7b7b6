// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package presence

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/metrics"
)

var (
	// ErrSubscriberClosed is returned by Deliver after Close.
	ErrSubscriberClosed = errors.New("presence: subscriber closed")

	// ErrBufferFull is returned by Deliver when the outbound queue is full.
	ErrBufferFull = errors.New("presence: send buffer full")
)

// Subscriber is one audience member of the broadcast engine.
//
// Deliver must not block: it either enqueues the event for the connection's
// writer or returns an error (ErrBufferFull, ErrSubscriberClosed). Events
// delivered to one subscriber must be written in the order Deliver was called.
type Subscriber interface {
	ID() string
	Deliver(Event) error
	Close()
}

// Engine fans events out to subscribers. Delivery is best effort: a
// subscriber that cannot accept an event misses it.
type Engine struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	logger zerolog.Logger
}

// NewEngine creates an Engine with no subscribers.
func NewEngine() *Engine {
	return &Engine{
		subs:   make(map[string]Subscriber),
		logger: logging.WithComponent("broadcast"),
	}
}

// Add registers sub under its ID and returns the subscriber it replaced, if any.
func (e *Engine) Add(sub Subscriber) Subscriber {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.subs[sub.ID()]
	e.subs[sub.ID()] = sub
	return prev
}

// Get returns the subscriber registered under id, or nil.
func (e *Engine) Get(id string) Subscriber {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.subs[id]
}

// Remove unregisters id and returns the removed subscriber, or nil.
func (e *Engine) Remove(id string) Subscriber {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub, ok := e.subs[id]
	if !ok {
		return nil
	}
	delete(e.subs, id)
	return sub
}

// Count returns the number of subscribers.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// Broadcast delivers ev to every subscriber except exceptID (empty excludes
// nobody) and returns how many accepted it.
//
// DETERMINISM: subscribers are visited in id order.
func (e *Engine) Broadcast(ev Event, exceptID string) int {
	delivered := 0
	for _, sub := range e.sorted() {
		if sub.ID() == exceptID {
			continue
		}
		if e.deliver(sub, ev) == nil {
			delivered++
		}
	}
	return delivered
}

// SendTo delivers ev to a single subscriber.
func (e *Engine) SendTo(id string, ev Event) error {
	e.mu.RLock()
	sub, ok := e.subs[id]
	e.mu.RUnlock()

	if !ok {
		return ErrUnknownConnection
	}
	return e.deliver(sub, ev)
}

// CloseAll closes and removes every subscriber, returning how many were closed.
func (e *Engine) CloseAll() int {
	e.mu.Lock()
	subs := make([]Subscriber, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	e.subs = make(map[string]Subscriber)
	e.mu.Unlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].ID() < subs[j].ID() })
	for _, sub := range subs {
		sub.Close()
	}
	return len(subs)
}

func (e *Engine) sorted() []Subscriber {
	e.mu.RLock()
	subs := make([]Subscriber, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	e.mu.RUnlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].ID() < subs[j].ID() })
	return subs
}

func (e *Engine) deliver(sub Subscriber, ev Event) error {
	err := sub.Deliver(ev)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("conn_id", sub.ID()).
			Str("event", string(ev.Type)).
			Msg("event dropped for subscriber")
		metrics.RecordDelivery(string(ev.Type), false)
		return err
	}
	metrics.RecordDelivery(string(ev.Type), true)
	return nil
}
