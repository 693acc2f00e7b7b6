// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package metrics provides Prometheus metrics for the presence relay.

All collectors are registered with the default registry through promauto and
exposed at /metrics:

	curl http://localhost:4000/metrics

# Available Metrics

Presence:
  - presence_connections: registry size (gauge)
  - presence_located_connections: connections with a known location (gauge)
  - presence_joins_total, presence_leaves_total (counters)
  - presence_duplicate_registrations_total (counter)
  - presence_location_updates_accepted_total (counter)
  - presence_location_updates_rejected_total (counter)
    Labels: reason (validation, rate_limited, unknown_connection, malformed)
  - presence_events_delivered_total, presence_events_dropped_total (counters)
    Labels: type (received-location, user-disconnected, total-users)

Transports:
  - presence_transport_connections (gauge), Labels: transport (websocket, longpoll)
  - presence_transport_messages_sent_total, presence_transport_messages_received_total
  - presence_transport_errors_total, Labels: transport, error_type
  - presence_longpoll_sessions_expired_total

Event sink:
  - presence_sink_events_total, Labels: topic, result
  - presence_sink_queue_depth (gauge)
  - circuit_breaker_state, circuit_breaker_state_transitions_total

HTTP:
  - api_requests_total, Labels: method, endpoint, status_code
  - api_request_duration_seconds, Labels: method, endpoint
  - api_active_requests (gauge)
  - api_rate_limit_hits_total, Labels: endpoint

# Example Queries

Drop rate per event type:

	rate(presence_events_dropped_total[5m]) / rate(presence_events_delivered_total[5m])

Rejected updates by reason:

	sum by (reason) (rate(presence_location_updates_rejected_total[5m]))
*/
package metrics
