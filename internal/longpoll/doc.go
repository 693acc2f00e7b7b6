// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package longpoll is the HTTP long-polling fallback for clients that cannot
open a websocket. A session is a presence.Subscriber like a websocket client,
so both transports share one relay and see each other.

Endpoints (mounted at /poll):

	POST   /poll        open a session -> {sid, ping_interval_ms, ping_timeout_ms}
	GET    /poll/{sid}  wait up to poll_wait, returns a JSON array of envelopes
	POST   /poll/{sid}  submit one envelope -> 204, 400, 404 or 429
	DELETE /poll/{sid}  close the session

A session with no poll in flight and no activity for
ping_interval + ping_timeout is swept by Manager.RunWithContext and leaves the
relay exactly like a dropped websocket.
*/
package longpoll
