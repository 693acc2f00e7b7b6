// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package services

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/presence"
)

func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

// mockRunner is a test double for ContextRunner.
type mockRunner struct {
	runErr   error
	runCount atomic.Int32
}

func (m *mockRunner) RunWithContext(ctx context.Context) error {
	m.runCount.Add(1)
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerService_Interface(t *testing.T) {
	var _ suture.Service = (*RunnerService)(nil)
	var _ ContextRunner = (*presence.Relay)(nil)
}

func TestRunnerService_Names(t *testing.T) {
	t.Parallel()

	r := &mockRunner{}
	tests := []struct {
		svc  *RunnerService
		want string
	}{
		{NewRelayService(r), "presence-relay"},
		{NewLongPollService(r), "longpoll-sweeper"},
		{NewEventSinkService(r), "event-sink"},
		{NewRunnerService("custom", r), "custom"},
	}
	for _, tt := range tests {
		if got := tt.svc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if tt.svc.runner != r {
			t.Error("runner not assigned correctly")
		}
	}
}

func TestRunnerService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("returns context error on cancellation", func(t *testing.T) {
		t.Parallel()
		r := &mockRunner{}
		svc := NewRunnerService("test", r)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return after cancellation")
		}
		if r.runCount.Load() != 1 {
			t.Errorf("run count = %d, want 1", r.runCount.Load())
		}
	})

	t.Run("propagates runner error", func(t *testing.T) {
		t.Parallel()
		want := errors.New("runner failed")
		svc := NewRunnerService("test", &mockRunner{runErr: want})
		if err := svc.Serve(context.Background()); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	})
}

func TestRunnerService_SupervisedRestart(t *testing.T) {
	t.Parallel()

	r := &mockRunner{runErr: errors.New("crash")}
	sup := suture.New("test", suture.Spec{FailureBackoff: 10 * time.Millisecond, FailureThreshold: 100})
	sup.Add(NewRunnerService("crashy", r))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = sup.Serve(ctx)

	if r.runCount.Load() < 2 {
		t.Errorf("expected restarts, run count = %d", r.runCount.Load())
	}
}

func TestRunnerService_RelayShutdown(t *testing.T) {
	t.Parallel()

	relay := presence.NewRelay(presence.Options{})
	svc := NewRelayService(relay)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	cancel()

	select {
	case <-errCh:
	case <-time.After(time.Second):
		t.Fatal("relay service did not stop")
	}
	if err := relay.Join(&nopSubscriber{id: "late"}); !errors.Is(err, presence.ErrRelayClosed) {
		t.Errorf("Join after shutdown = %v, want ErrRelayClosed", err)
	}
}

type nopSubscriber struct{ id string }

func (s *nopSubscriber) ID() string { return s.id }

func (s *nopSubscriber) Deliver(presence.Event) error { return nil }

func (s *nopSubscriber) Close() {}
