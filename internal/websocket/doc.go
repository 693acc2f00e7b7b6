// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package websocket is the primary presence transport, built on gorilla/websocket.

Each upgraded connection becomes a Client with a fresh UUID. The Client is a
presence.Subscriber: the relay fans events into its buffered send queue and
the client's write pump turns them into text frames.

Architecture:

	            ┌─────────────────┐
	  frames →  │    readPump     │ → relay.UpdateLocation / pong / error
	            └─────────────────┘
	            ┌─────────────────┐
	relay    →  │ send (buffered) │ → writePump → frames, pings
	            └─────────────────┘

Connection Lifecycle:

 1. Handler upgrades the request (origin checked against the CORS list)
 2. Client.Start runs the write pump, then relay.Join (CONNECTING -> ACTIVE)
 3. readPump decodes frames; bad frames get an error frame, the socket stays open
 4. Any read error, idle timeout or close frame calls relay.Leave (CLOSED)
 5. On shutdown the relay closes every client; each sends a going-away close frame

Liveness:

The write pump pings every PingInterval. The read deadline is
PingInterval + PingTimeout and is extended by any frame or pong, so a dead
peer is dropped after at most that long.

Backpressure:

Deliver never blocks. When the send queue is full the event is dropped for
that client only and counted in presence_events_dropped_total.
*/
package websocket
