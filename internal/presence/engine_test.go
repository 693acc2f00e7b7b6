// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package presence

import (
	"errors"
	"sync"
	"testing"
)

// recordingSubscriber captures delivered events. A positive capacity makes
// Deliver fail with ErrBufferFull once that many events are held.
type recordingSubscriber struct {
	id       string
	capacity int

	mu     sync.Mutex
	events []Event
	closed bool
}

func newRecordingSubscriber(id string) *recordingSubscriber {
	return &recordingSubscriber{id: id}
}

func (s *recordingSubscriber) ID() string { return s.id }

func (s *recordingSubscriber) Deliver(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriberClosed
	}
	if s.capacity > 0 && len(s.events) >= s.capacity {
		return ErrBufferFull
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recordingSubscriber) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSubscriber) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *recordingSubscriber) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func TestEngine_BroadcastExcludesSender(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	a, b, c := newRecordingSubscriber("a"), newRecordingSubscriber("b"), newRecordingSubscriber("c")
	e.Add(a)
	e.Add(b)
	e.Add(c)

	n := e.Broadcast(ReceivedLocation("a", Location{Latitude: 1, Longitude: 2}), "a")
	if n != 2 {
		t.Errorf("Broadcast delivered = %d, want 2", n)
	}
	if len(a.Events()) != 0 {
		t.Error("sender must not receive its own received-location")
	}
	if len(b.Events()) != 1 || len(c.Events()) != 1 {
		t.Errorf("b=%d c=%d events, want 1 each", len(b.Events()), len(c.Events()))
	}
}

func TestEngine_FullSubscriberMissesEvent(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	slow := &recordingSubscriber{id: "slow", capacity: 1}
	fast := newRecordingSubscriber("fast")
	e.Add(slow)
	e.Add(fast)

	e.Broadcast(TotalUsers(2), "")
	n := e.Broadcast(TotalUsers(3), "")

	if n != 1 {
		t.Errorf("second Broadcast delivered = %d, want 1", n)
	}
	if got := len(slow.Events()); got != 1 {
		t.Errorf("slow subscriber has %d events, want 1", got)
	}
	if got := len(fast.Events()); got != 2 {
		t.Errorf("fast subscriber has %d events, want 2", got)
	}
	if e.Count() != 2 {
		t.Error("a full subscriber stays registered")
	}
}

func TestEngine_SendTo(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	a := newRecordingSubscriber("a")
	e.Add(a)

	if err := e.SendTo("a", TotalUsers(1)); err != nil {
		t.Fatalf("SendTo(a) error = %v", err)
	}
	if err := e.SendTo("missing", TotalUsers(1)); !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("SendTo(missing) error = %v, want ErrUnknownConnection", err)
	}

	a.Close()
	if err := e.SendTo("a", TotalUsers(1)); !errors.Is(err, ErrSubscriberClosed) {
		t.Errorf("SendTo(closed) error = %v, want ErrSubscriberClosed", err)
	}
}

func TestEngine_AddReplacesAndRemove(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	first := newRecordingSubscriber("a")
	second := newRecordingSubscriber("a")

	if prev := e.Add(first); prev != nil {
		t.Error("first Add should not replace anything")
	}
	if prev := e.Add(second); prev != first {
		t.Error("second Add should return the replaced subscriber")
	}
	if e.Count() != 1 {
		t.Errorf("Count() = %d, want 1", e.Count())
	}

	if got := e.Remove("a"); got != second {
		t.Error("Remove should return the current subscriber")
	}
	if got := e.Remove("a"); got != nil {
		t.Error("second Remove should return nil")
	}
}

func TestEngine_CloseAll(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	a, b := newRecordingSubscriber("a"), newRecordingSubscriber("b")
	e.Add(a)
	e.Add(b)

	if n := e.CloseAll(); n != 2 {
		t.Errorf("CloseAll() = %d, want 2", n)
	}
	if !a.IsClosed() || !b.IsClosed() {
		t.Error("all subscribers should be closed")
	}
	if e.Count() != 0 {
		t.Errorf("Count() = %d, want 0", e.Count())
	}
}
