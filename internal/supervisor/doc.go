// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package supervisor provides process supervision for the relay using suture v4.

# Overview

The supervisor tree organizes services into two layers:

	RootSupervisor ("presence-relay")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── presence-relay     (gauge refresh, closes subscribers on shutdown)
	│   ├── longpoll-sweeper   (if relay.longpoll_enabled)
	│   └── event-sink         (if events.enabled)
	└── APISupervisor ("api-layer")
	    └── http-server

Crashed services restart with suture's failure decay and backoff. Events
(starts, failures, backoff) are logged through sutureslog, which writes to
zerolog via logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewRelayService(relay))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	// Blocks until ctx is canceled
	err = tree.Serve(ctx)

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: service stopped cleanly, will not be restarted
  - Return error: service crashed, will be restarted
  - Context canceled: shutdown requested, return promptly

# Debugging Shutdown Issues

Services that ignore cancellation show up in UnstoppedServiceReport after
ShutdownTimeout.
*/
package supervisor
