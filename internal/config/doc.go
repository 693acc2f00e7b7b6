// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

// Package config loads relay configuration with Koanf v2.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML file
// (CONFIG_PATH, ./config.yaml, /etc/presence-relay/config.yaml), then
// environment variables.
//
// # Environment Variables
//
//	PORT / HTTP_PORT   listen port (default 4000)
//	HTTP_HOST          listen host (default 0.0.0.0)
//	CORS_ORIGINS       comma-separated allowed origins (default *)
//	PING_INTERVAL      websocket ping interval (default 25s)
//	PING_TIMEOUT       extra silence allowed after a ping (default 30s)
//	BACKFILL_ON_JOIN   send known peer locations to new connections (default true)
//	UPDATE_RATE        location updates per second per connection (default 10)
//	LONGPOLL_ENABLED   mount the /poll fallback (default true)
//	LOG_LEVEL          trace, debug, info, warn, error (default info)
//	LOG_FORMAT         json, console (default json)
//	EVENTS_ENABLED     publish presence events to NATS (default false)
//	NATS_URL           NATS server URL (default nats://127.0.0.1:4222)
//	NATS_EMBEDDED      run an in-process NATS server (default false)
//
// # Example config.yaml
//
//	server:
//	  port: 4000
//	relay:
//	  ping_interval: 25s
//	  ping_timeout: 30s
//	  backfill_on_join: true
//	security:
//	  cors_origins:
//	    - https://map.example.com
//	events:
//	  enabled: true
//	  embedded_server: true
package config
