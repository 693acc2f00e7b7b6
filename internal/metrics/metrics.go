// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transport label values.
const (
	TransportWebSocket = "websocket"
	TransportLongPoll  = "longpoll"
)

// Rejection reason label values for location updates.
const (
	ReasonValidation  = "validation"
	ReasonRateLimited = "rate_limited"
	ReasonUnknownConn = "unknown_connection"
	ReasonMalformed   = "malformed"
)

var (
	// Presence Metrics
	PresenceConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_connections",
			Help: "Current number of registered presence connections",
		},
	)

	PresenceLocatedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_located_connections",
			Help: "Current number of connections that have reported a location",
		},
	)

	PresenceJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_joins_total",
			Help: "Total number of connections registered",
		},
	)

	PresenceLeaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_leaves_total",
			Help: "Total number of connections removed",
		},
	)

	PresenceDuplicateRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_duplicate_registrations_total",
			Help: "Total number of register calls for an id already present",
		},
	)

	LocationUpdatesAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_location_updates_accepted_total",
			Help: "Total number of location updates applied to the registry",
		},
	)

	LocationUpdatesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_location_updates_rejected_total",
			Help: "Total number of location updates rejected",
		},
		[]string{"reason"}, // validation, rate_limited, unknown_connection, malformed
	)

	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_events_delivered_total",
			Help: "Total number of events enqueued to subscribers",
		},
		[]string{"type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_events_dropped_total",
			Help: "Total number of events dropped because the subscriber was full or closed",
		},
		[]string{"type"},
	)

	// Transport Metrics
	TransportConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "presence_transport_connections",
			Help: "Current number of open connections per transport",
		},
		[]string{"transport"},
	)

	TransportMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_transport_messages_sent_total",
			Help: "Total number of messages written to clients",
		},
		[]string{"transport"},
	)

	TransportMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_transport_messages_received_total",
			Help: "Total number of messages read from clients",
		},
		[]string{"transport"},
	)

	TransportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_transport_errors_total",
			Help: "Total number of transport errors",
		},
		[]string{"transport", "error_type"},
	)

	LongPollSessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_longpoll_sessions_expired_total",
			Help: "Total number of long-poll sessions closed by the idle sweeper",
		},
	)

	// Event Sink Metrics
	SinkEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_sink_events_total",
			Help: "Total number of presence events handled by the sink",
		},
		[]string{"topic", "result"}, // result: "published", "failed", "rejected", "dropped"
	)

	SinkQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_sink_queue_depth",
			Help: "Current number of events waiting to be published",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}, // long polls hold up to poll_wait
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the per-IP rate limiter",
		},
		[]string{"endpoint"},
	)
)

// RecordJoin records a registration and the resulting registry size.
func RecordJoin(size int, duplicate bool) {
	PresenceJoins.Inc()
	if duplicate {
		PresenceDuplicateRegistrations.Inc()
	}
	PresenceConnections.Set(float64(size))
}

// RecordLeave records a removal and the resulting registry size.
func RecordLeave(size int) {
	PresenceLeaves.Inc()
	PresenceConnections.Set(float64(size))
}

// RecordLocationUpdate records an accepted update, or a rejection when reason is non-empty.
func RecordLocationUpdate(reason string) {
	if reason == "" {
		LocationUpdatesAccepted.Inc()
		return
	}
	LocationUpdatesRejected.WithLabelValues(reason).Inc()
}

// RecordDelivery records one fan-out attempt for an event type.
func RecordDelivery(eventType string, delivered bool) {
	if delivered {
		EventsDelivered.WithLabelValues(eventType).Inc()
		return
	}
	EventsDropped.WithLabelValues(eventType).Inc()
}

// TrackTransportConnection adjusts the open connection gauge for a transport.
func TrackTransportConnection(transport string, inc bool) {
	if inc {
		TransportConnections.WithLabelValues(transport).Inc()
	} else {
		TransportConnections.WithLabelValues(transport).Dec()
	}
}

// RecordTransportError records a transport failure.
func RecordTransportError(transport, errorType string) {
	TransportErrors.WithLabelValues(transport, errorType).Inc()
}

// RecordSinkEvent records an event sink outcome.
func RecordSinkEvent(topic, result string) {
	SinkEventsPublished.WithLabelValues(topic, result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a request rejected by the per-IP limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}
