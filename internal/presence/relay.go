// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/metrics"
)

// ErrRelayClosed is returned by Join after the relay has shut down.
var ErrRelayClosed = errors.New("presence: relay closed")

// ShutdownReason identifies why the relay is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Observer is notified of every applied presence change, in order, while
// the relay lock is held. Implementations must not block.
type Observer interface {
	OnJoin(id string, at time.Time)
	OnLocation(id string, loc Location, at time.Time)
	OnLeave(id string, at time.Time)
}

// Options configures a Relay.
type Options struct {
	// BackfillOnJoin sends a joining connection one received-location per
	// already-located peer before the total-users broadcast.
	BackfillOnJoin bool

	// Observer receives applied changes. Optional.
	Observer Observer

	// GaugeInterval controls how often RunWithContext refreshes the
	// registry gauges. Zero disables the refresh.
	GaugeInterval time.Duration
}

// Relay is the presence protocol handler: it owns the registry and the
// broadcast engine and applies each connection lifecycle step together with
// its emissions under one lock.
type Relay struct {
	mu       sync.Mutex
	registry *Registry
	engine   *Engine
	opts     Options
	closed   bool
	logger   zerolog.Logger
}

// NewRelay creates a Relay.
func NewRelay(opts Options) *Relay {
	return &Relay{
		registry: NewRegistry(),
		engine:   NewEngine(),
		opts:     opts,
		logger:   logging.WithComponent("relay"),
	}
}

// Join registers sub (CONNECTING -> ACTIVE). With backfill enabled, sub first
// receives the last known location of every located peer. Every subscriber,
// including sub, then receives total-users.
//
// A duplicate id is overwritten and ErrDuplicateConnection is returned; the
// connection is still ACTIVE and callers should treat it as a warning.
func (r *Relay) Join(sub Subscriber) error {
	id := sub.ID()

	// The replaced subscriber is closed after r.mu is released: closing a
	// transport makes it call Detach, which takes r.mu.
	var replaced Subscriber
	defer func() {
		if replaced != nil && replaced != sub {
			replaced.Close()
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRelayClosed
	}

	regErr := r.registry.Register(id)
	duplicate := errors.Is(regErr, ErrDuplicateConnection)
	if duplicate {
		r.logger.Warn().Str("conn_id", id).Msg("duplicate connection id registered, entry overwritten")
	}
	replaced = r.engine.Add(sub)

	if r.opts.BackfillOnJoin {
		r.backfill(sub)
	}

	size := r.registry.Size()
	r.engine.Broadcast(TotalUsers(size), "")
	metrics.RecordJoin(size, duplicate)

	if r.opts.Observer != nil {
		r.opts.Observer.OnJoin(id, time.Now())
	}

	r.logger.Info().Str("conn_id", id).Int("connections", size).Msg("presence client connected")
	return regErr
}

// backfill must be called with r.mu held.
func (r *Relay) backfill(sub Subscriber) {
	for _, entry := range r.registry.Snapshot() {
		if entry.ID == sub.ID() || entry.Location == nil {
			continue
		}
		if r.engine.deliver(sub, ReceivedLocation(entry.ID, *entry.Location)) != nil {
			return
		}
	}
}

// UpdateLocation validates loc, stores it for id and sends received-location
// to every other subscriber. Invalid locations and unknown ids change nothing
// and emit nothing.
func (r *Relay) UpdateLocation(id string, loc Location) error {
	if err := loc.Validate(); err != nil {
		metrics.RecordLocationUpdate(metrics.ReasonValidation)
		return fmt.Errorf("invalid location: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.registry.UpdateLocation(id, loc); err != nil {
		metrics.RecordLocationUpdate(metrics.ReasonUnknownConn)
		r.logger.Warn().Str("conn_id", id).Msg("location update for unknown connection ignored")
		return err
	}

	r.engine.Broadcast(ReceivedLocation(id, loc), id)
	metrics.RecordLocationUpdate("")

	if r.opts.Observer != nil {
		r.opts.Observer.OnLocation(id, loc, time.Now())
	}

	r.logger.Debug().
		Str("conn_id", id).
		Float64("latitude", loc.Latitude).
		Float64("longitude", loc.Longitude).
		Msg("location updated")
	return nil
}

// Leave removes id (ACTIVE -> CLOSED) and sends user-disconnected then
// total-users to every remaining subscriber. It reports whether id was
// registered; repeated calls are no-ops.
func (r *Relay) Leave(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leave(id)
}

// Detach is Leave for a transport ending its own connection. It is a no-op
// when a duplicate join has replaced sub under its id, so a superseded
// connection cannot evict its replacement.
func (r *Relay) Detach(sub Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur := r.engine.Get(sub.ID()); cur != nil && cur != sub {
		return false
	}
	return r.leave(sub.ID())
}

// leave must be called with r.mu held.
func (r *Relay) leave(id string) bool {
	r.engine.Remove(id)
	if !r.registry.Remove(id) {
		return false
	}

	size := r.registry.Size()
	r.engine.Broadcast(UserDisconnected(id), "")
	r.engine.Broadcast(TotalUsers(size), "")
	metrics.RecordLeave(size)

	if r.opts.Observer != nil {
		r.opts.Observer.OnLeave(id, time.Now())
	}

	r.logger.Info().Str("conn_id", id).Int("connections", size).Msg("presence client disconnected")
	return true
}

// Size returns the number of registered connections.
func (r *Relay) Size() int {
	return r.registry.Size()
}

// Snapshot returns every registered connection sorted by id.
func (r *Relay) Snapshot() []Entry {
	return r.registry.Snapshot()
}

// RunWithContext blocks until ctx is done, refreshing gauges every
// GaugeInterval, then closes every subscriber and rejects further joins.
// It implements suture.Service through the supervisor wrapper.
func (r *Relay) RunWithContext(ctx context.Context) error {
	var tick <-chan time.Time
	if r.opts.GaugeInterval > 0 {
		ticker := time.NewTicker(r.opts.GaugeInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			r.logGracefulShutdown(ctx)
			return ctx.Err()
		case <-tick:
			r.refreshGauges()
		}
	}
}

func (r *Relay) refreshGauges() {
	metrics.PresenceConnections.Set(float64(r.registry.Size()))
	metrics.PresenceLocatedConnections.Set(float64(r.registry.Located()))
}

// logGracefulShutdown closes all subscribers and logs why.
//
// ctx.Err() is not logged as an error: cancellation is the expected path.
func (r *Relay) logGracefulShutdown(ctx context.Context) {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	// Closing makes transports call Leave, which takes r.mu.
	closed := r.engine.CloseAll()

	r.logger.Info().
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", closed).
		Msg("presence relay stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}
