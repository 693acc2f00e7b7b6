// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package eventsink publishes presence changes to NATS for downstream consumers.

The relay notifies the Sink (a presence.Observer) of every applied join,
location change and leave while it holds its lock, so the Sink only queues.
A supervised worker (Sink.RunWithContext) drains the queue and publishes one
JSON Record per change through a watermill publisher:

	<prefix>.joined    {event_id, kind, conn_id, timestamp}
	<prefix>.location  {event_id, kind, conn_id, latitude, longitude, timestamp}
	<prefix>.left      {event_id, kind, conn_id, timestamp}

Publishes run through a gobreaker circuit breaker. A slow or broken broker
costs dropped records, never relay latency: the queue is bounded and drops on
full, and an open breaker rejects immediately.

NewNATSPublisher builds the watermill-nats publisher (core NATS or
JetStream). NewEmbeddedServer starts an in-process nats-server when no
external broker is configured.
*/
package eventsink
