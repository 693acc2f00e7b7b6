// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

/*
Package services provides suture.Service wrappers for relay components.

HTTP Server (HTTPServerService):
  - Converts the blocking ListenAndServe pattern to Serve
  - Graceful shutdown with a configurable timeout

Context runners (RunnerService):
  - Delegates to RunWithContext on the relay, the long-poll manager and the
    event sink
  - Names the service for suture's event log
*/
package services
