// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package services

import (
	"context"
)

// ContextRunner is a component whose run loop already follows the suture
// pattern: block until ctx ends, then clean up and return.
//
// Satisfied by:
//   - *presence.Relay (gauge refresh; closes every subscriber on shutdown)
//   - *longpoll.Manager (idle session sweeper)
//   - *eventsink.Sink (publish worker; drains its queue on shutdown)
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService wraps a ContextRunner as a supervised service.
//
// Example usage:
//
//	relay := presence.NewRelay(opts)
//	tree.AddMessagingService(services.NewRelayService(relay))
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService wraps runner under the given service name.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{
		runner: runner,
		name:   name,
	}
}

// NewRelayService wraps the presence relay.
func NewRelayService(relay ContextRunner) *RunnerService {
	return NewRunnerService("presence-relay", relay)
}

// NewLongPollService wraps the long-poll session manager.
func NewLongPollService(manager ContextRunner) *RunnerService {
	return NewRunnerService("longpoll-sweeper", manager)
}

// NewEventSinkService wraps the presence event sink.
func NewEventSinkService(sink ContextRunner) *RunnerService {
	return NewRunnerService("event-sink", sink)
}

// Serve implements suture.Service. It returns ctx.Err() on normal shutdown.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *RunnerService) String() string {
	return s.name
}
