// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package longpoll

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/presence-relay/internal/config"
	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/metrics"
	"github.com/tomtom215/presence-relay/internal/presence"
	"github.com/tomtom215/presence-relay/internal/protocol"
)

var (
	// ErrSessionNotFound is returned for an unknown or already closed session id.
	ErrSessionNotFound = errors.New("longpoll: session not found")

	// ErrSessionClosed is returned by a poll that was pending when the session
	// closed, and by Open when shutdown closed the session during its join.
	ErrSessionClosed = errors.New("longpoll: session closed")

	// ErrRateLimited is returned by Submit when location updates arrive too fast.
	ErrRateLimited = errors.New("longpoll: location updates rate limited")
)

// Options configures the long-poll transport.
type Options struct {
	PingInterval   time.Duration
	PingTimeout    time.Duration
	PollWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
	UpdateRate     float64
	UpdateBurst    int
}

// OptionsFromConfig maps the relay configuration section to long-poll options.
func OptionsFromConfig(cfg config.RelayConfig) Options {
	return Options{
		PingInterval:   cfg.PingInterval,
		PingTimeout:    cfg.PingTimeout,
		PollWait:       cfg.PollWait,
		MaxMessageSize: cfg.MaxMessageSize,
		SendBuffer:     cfg.SendBuffer,
		UpdateRate:     cfg.UpdateRate,
		UpdateBurst:    cfg.UpdateBurst,
	}
}

// IdleTimeout is how long a session may go without a poll or submit.
func (o Options) IdleTimeout() time.Duration {
	return o.PingInterval + o.PingTimeout
}

// Manager owns the long-poll sessions and joins each one to the relay.
type Manager struct {
	relay *presence.Relay
	opts  Options
	now   func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	logger zerolog.Logger
}

// NewManager creates a Manager.
func NewManager(relay *presence.Relay, opts Options) *Manager {
	return &Manager{
		relay:    relay,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*Session),
		logger:   logging.WithComponent("longpoll"),
	}
}

// Options returns the transport settings.
func (m *Manager) Options() Options {
	return m.opts
}

// Open creates a session and joins it to the relay. Join-time events are
// queued for the first poll.
func (m *Manager) Open() (*Session, error) {
	s := newSession(m.opts, m.now(), m.finish)

	// The gauge goes up before the session is visible, because finish
	// decrements it for every session it finds in the map.
	metrics.TrackTransportConnection(metrics.TransportLongPoll, true)
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	if err := m.relay.Join(s); err != nil && !errors.Is(err, presence.ErrDuplicateConnection) {
		if m.forget(s) {
			metrics.TrackTransportConnection(metrics.TransportLongPoll, false)
		}
		return nil, err
	}
	if !s.state.CompareAndSwap(int32(presence.StateConnecting), int32(presence.StateActive)) {
		// Closed by a concurrent shutdown before the join landed.
		m.relay.Detach(s)
		return nil, ErrSessionClosed
	}

	m.logger.Debug().Str("conn_id", s.id).Msg("long-poll session opened")
	return s, nil
}

// Poll waits up to PollWait for events queued for sid.
func (m *Manager) Poll(ctx context.Context, sid string) ([][]byte, error) {
	s, err := m.get(sid)
	if err != nil {
		return nil, err
	}

	frames, err := s.poll(ctx, m.opts.PollWait, m.now)
	if errors.Is(err, ErrSessionClosed) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	metrics.TransportMessagesSent.WithLabelValues(metrics.TransportLongPoll).Add(float64(len(frames)))
	return frames, nil
}

// Submit applies one client envelope for sid. Decode failures are returned
// as *protocol.DecodeError and leave the session open.
func (m *Manager) Submit(sid string, raw []byte) error {
	s, err := m.get(sid)
	if err != nil {
		return err
	}
	s.touch(m.now())
	metrics.TransportMessagesReceived.WithLabelValues(metrics.TransportLongPoll).Inc()

	msg, err := protocol.Decode(raw)
	if err != nil {
		var derr *protocol.DecodeError
		reason := metrics.ReasonValidation
		if errors.As(err, &derr) {
			reason = derr.Reason
		}
		metrics.RecordLocationUpdate(reason)
		m.logger.Warn().Err(err).Str("conn_id", sid).Str("reason", reason).Msg("invalid client message rejected")
		return err
	}

	switch msg.Type {
	case protocol.TypePing:
		_ = s.enqueue(protocol.EncodePong())
		return nil

	case protocol.TypeSendLocation:
		if !s.limiter.Allow() {
			metrics.RecordLocationUpdate(metrics.ReasonRateLimited)
			return ErrRateLimited
		}
		err := m.relay.UpdateLocation(sid, msg.Location)
		if errors.Is(err, presence.ErrUnknownConnection) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// CloseSession leaves the relay and discards sid.
func (m *Manager) CloseSession(sid string) error {
	s, err := m.get(sid)
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// finish runs once per session from Session.Close.
func (m *Manager) finish(s *Session) {
	ok := m.forget(s)

	m.relay.Detach(s)
	if ok {
		metrics.TrackTransportConnection(metrics.TransportLongPoll, false)
	}
	m.logger.Debug().Str("conn_id", s.id).Msg("long-poll session closed")
}

// forget removes s from the session map if it is still the entry for its id.
func (m *Manager) forget(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.sessions[s.id]; !ok || cur != s {
		return false
	}
	delete(m.sessions, s.id)
	return true
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle longer than IdleTimeout and returns how many.
//
// DETERMINISM: sessions are closed in id order.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.opts.IdleTimeout())

	m.mu.RLock()
	expired := make([]*Session, 0)
	for _, s := range m.sessions {
		if s.idleSince(cutoff) {
			expired = append(expired, s)
		}
	}
	m.mu.RUnlock()

	sort.Slice(expired, func(i, j int) bool { return expired[i].id < expired[j].id })
	for _, s := range expired {
		m.logger.Info().Str("conn_id", s.id).Msg("long-poll session expired")
		metrics.LongPollSessionsExpired.Inc()
		s.Close()
	}
	return len(expired)
}

// RunWithContext sweeps idle sessions every PingInterval until ctx is done,
// then closes the remaining sessions.
func (m *Manager) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			closed := m.closeAll()
			m.logger.Info().Int("sessions_closed", closed).Msg("long-poll manager stopped")
			return ctx.Err()
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) closeAll() int {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	for _, s := range all {
		s.Close()
	}
	return len(all)
}

func (m *Manager) get(sid string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}
