// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package eventsink

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/metrics"
	"github.com/tomtom215/presence-relay/internal/presence"
)

// Sink results recorded in presence_sink_events_total.
const (
	ResultPublished = "published"
	ResultFailed    = "failed"
	ResultRejected  = "rejected"
	ResultDropped   = "dropped"
)

// BreakerName labels the sink circuit breaker in metrics.
const BreakerName = "event-sink"

// Config configures a Sink.
type Config struct {
	TopicPrefix        string
	QueueSize          int
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// Sink is a presence.Observer that publishes every applied change to a
// watermill publisher from a supervised worker. The relay-facing side never
// blocks: when the queue is full the record is dropped.
type Sink struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[interface{}]
	prefix    string
	queue     chan Record
	logger    zerolog.Logger
}

var _ presence.Observer = (*Sink)(nil)

// New creates a Sink publishing through pub.
func New(pub message.Publisher, cfg Config) *Sink {
	return &Sink{
		publisher: pub,
		breaker:   NewCircuitBreaker(BreakerName, cfg.BreakerMaxFailures, cfg.BreakerTimeout),
		prefix:    cfg.TopicPrefix,
		queue:     make(chan Record, cfg.QueueSize),
		logger:    logging.WithComponent("eventsink"),
	}
}

// OnJoin queues a joined record.
func (s *Sink) OnJoin(id string, at time.Time) {
	s.enqueue(newRecord(KindJoined, id, at))
}

// OnLocation queues a location record.
func (s *Sink) OnLocation(id string, loc presence.Location, at time.Time) {
	rec := newRecord(KindLocation, id, at)
	lat, lon := loc.Latitude, loc.Longitude
	rec.Latitude = &lat
	rec.Longitude = &lon
	s.enqueue(rec)
}

// OnLeave queues a left record.
func (s *Sink) OnLeave(id string, at time.Time) {
	s.enqueue(newRecord(KindLeft, id, at))
}

func (s *Sink) enqueue(rec Record) {
	select {
	case s.queue <- rec:
		metrics.SinkQueueDepth.Set(float64(len(s.queue)))
	default:
		metrics.RecordSinkEvent(rec.Topic(s.prefix), ResultDropped)
		s.logger.Warn().Str("kind", string(rec.Kind)).Str("conn_id", rec.ConnID).Msg("event sink queue full, record dropped")
	}
}

// RunWithContext publishes queued records until ctx is done, then makes one
// best-effort pass over whatever is still queued.
func (s *Sink) RunWithContext(ctx context.Context) error {
	s.logger.Info().Str("topic_prefix", s.prefix).Msg("event sink started")

	for {
		select {
		case <-ctx.Done():
			flushed := s.drain()
			s.logger.Info().Int("flushed", flushed).Msg("event sink stopped")
			return ctx.Err()
		case rec := <-s.queue:
			metrics.SinkQueueDepth.Set(float64(len(s.queue)))
			s.publish(rec)
		}
	}
}

func (s *Sink) drain() int {
	n := 0
	for {
		select {
		case rec := <-s.queue:
			s.publish(rec)
			n++
		default:
			metrics.SinkQueueDepth.Set(0)
			return n
		}
	}
}

// publish sends one record through the circuit breaker. Failures are logged
// and counted; the record is not retried.
func (s *Sink) publish(rec Record) {
	topic := rec.Topic(s.prefix)

	msg, err := rec.toMessage()
	if err != nil {
		metrics.RecordSinkEvent(topic, ResultFailed)
		s.logger.Error().Err(err).Str("topic", topic).Msg("failed to serialize presence record")
		return
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.publisher.Publish(topic, msg)
	})
	switch {
	case err == nil:
		metrics.RecordSinkEvent(topic, ResultPublished)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordSinkEvent(topic, ResultRejected)
		s.logger.Debug().Str("topic", topic).Msg("event sink circuit open, record rejected")
	default:
		metrics.RecordSinkEvent(topic, ResultFailed)
		s.logger.Warn().Err(err).Str("topic", topic).Msg("failed to publish presence record")
	}
}

// BreakerState returns the circuit breaker state for health reporting.
func (s *Sink) BreakerState() string {
	return s.breaker.State().String()
}

// QueueDepth returns the number of records waiting to be published.
func (s *Sink) QueueDepth() int {
	return len(s.queue)
}

// Close closes the underlying publisher.
func (s *Sink) Close() error {
	return s.publisher.Close()
}
