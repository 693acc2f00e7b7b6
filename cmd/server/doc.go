// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package main is the entry point for the presence relay server.

The relay keeps an in-memory map of connected clients and their last known
location. Clients send send-location messages over a websocket (or the
long-poll fallback); every other client receives received-location,
user-disconnected and total-users events. Nothing is persisted.

# Application Architecture

	RootSupervisor ("presence-relay")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── presence-relay
	│   ├── longpoll-sweeper (LONGPOLL_ENABLED)
	│   └── event-sink       (EVENTS_ENABLED)
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog, JSON or console
 3. Event sink (optional): embedded or external NATS via watermill
 4. Relay, websocket handler, long-poll manager
 5. Chi router and HTTP server
 6. Supervisor tree

# Signal Handling

SIGINT and SIGTERM cancel the root context. The relay closes every
connection (websocket clients get a going-away close frame), the HTTP server
drains plain requests, and the event sink publishes what it has queued
before the publisher and embedded broker are closed.

# Example Usage

	PORT=4000 CORS_ORIGINS=https://app.example.com ./presence-relay

With the event sink on an embedded broker:

	EVENTS_ENABLED=true NATS_EMBEDDED=true ./presence-relay
*/
package main
