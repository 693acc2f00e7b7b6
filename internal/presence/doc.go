// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package presence implements the connection registry, the broadcast engine and
the per-connection protocol state machine of the relay.

# Components

  - Registry: live connection ids and their last reported Location. The size
    of the registry is the authoritative client count.
  - Engine: best-effort fan-out of Events to Subscribers. Deliver never blocks;
    a full or closed subscriber misses the event.
  - Relay: applies Join, UpdateLocation and Leave together with their
    emissions under a single lock, so every total-users count equals the
    registry size when it was emitted.

# Lifecycle

	accept            -> Join(sub)               CONNECTING -> ACTIVE
	                     total-users to everyone
	send-location     -> UpdateLocation(id, loc)
	                     received-location to everyone except id
	close / error     -> Detach(sub)             ACTIVE -> CLOSED
	                     user-disconnected, then total-users, to everyone left

Transports (websocket, longpoll) implement Subscriber with a bounded outbound
queue and call the Relay from their read loops, so events from a single
connection are applied in arrival order.

# Usage

	relay := presence.NewRelay(presence.Options{BackfillOnJoin: true})
	if err := relay.Join(client); err != nil && !errors.Is(err, presence.ErrDuplicateConnection) {
	    return err
	}
	defer relay.Detach(client)
*/
package presence
