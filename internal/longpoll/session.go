// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package longpoll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/presence-relay/internal/presence"
	"github.com/tomtom215/presence-relay/internal/protocol"
)

// Session is one long-poll connection. It implements presence.Subscriber by
// queueing encoded frames until the client's next poll.
type Session struct {
	id      string
	limiter *rate.Limiter
	state   atomic.Int32

	mu       sync.Mutex
	queue    [][]byte
	capacity int
	lastSeen time.Time
	polling  int

	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
	onClose func(s *Session)
}

func newSession(opts Options, now time.Time, onClose func(s *Session)) *Session {
	s := &Session{
		id:       uuid.NewString(),
		limiter:  presence.NewUpdateLimiter(opts.UpdateRate, opts.UpdateBurst),
		capacity: opts.SendBuffer,
		lastSeen: now,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		onClose:  onClose,
	}
	s.state.Store(int32(presence.StateConnecting))
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the connection lifecycle state.
func (s *Session) State() presence.ConnState {
	return presence.ConnState(s.state.Load())
}

// Deliver encodes ev and queues it for the next poll without blocking.
func (s *Session) Deliver(ev presence.Event) error {
	frame, err := protocol.EncodeEvent(ev)
	if err != nil {
		return err
	}
	return s.enqueue(frame)
}

func (s *Session) enqueue(frame []byte) error {
	s.mu.Lock()
	if s.State() == presence.StateClosed {
		s.mu.Unlock()
		return presence.ErrSubscriberClosed
	}
	if len(s.queue) >= s.capacity {
		s.mu.Unlock()
		return presence.ErrBufferFull
	}
	s.queue = append(s.queue, frame)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// Close marks the session CLOSED, wakes a pending poll and runs the close
// callback once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.state.Store(int32(presence.StateClosed))
		s.mu.Unlock()
		close(s.done)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

// poll waits up to wait for queued frames and returns all of them. An empty
// result means the wait elapsed.
func (s *Session) poll(ctx context.Context, wait time.Duration, now func() time.Time) ([][]byte, error) {
	s.mu.Lock()
	s.polling++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.polling--
		s.lastSeen = now()
		s.mu.Unlock()
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		if frames := s.drain(); len(frames) > 0 {
			return frames, nil
		}
		if s.State() == presence.StateClosed {
			return nil, ErrSessionClosed
		}

		select {
		case <-s.notify:
		case <-s.done:
		case <-timer.C:
			return s.drain(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Session) drain() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}
	frames := s.queue
	s.queue = nil
	return frames
}

func (s *Session) touch(at time.Time) {
	s.mu.Lock()
	s.lastSeen = at
	s.mu.Unlock()
}

// idleSince reports whether the session has no poll in flight and has not
// been seen since cutoff.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polling == 0 && s.lastSeen.Before(cutoff)
}
