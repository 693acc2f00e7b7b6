// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// countingService is a suture.Service that records how often it ran and can
// fail its first few runs.
type countingService struct {
	name     string
	failures int32

	runs    atomic.Int32
	exits   atomic.Int32
	attempt atomic.Int32
}

func newCountingService(name string, failures int) *countingService {
	return &countingService{name: name, failures: int32(failures)}
}

func (s *countingService) Serve(ctx context.Context) error {
	s.runs.Add(1)
	defer s.exits.Add(1)

	if s.attempt.Add(1) <= s.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }
