// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

// Package logging provides centralized zerolog-based structured logging for the relay.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Int("connections", 3).Msg("presence client connected")
//	logging.Ctx(ctx).Warn().Err(err).Msg("rejected location update")
//
// # Configuration
//
// Environment variables (read by internal/config):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # Adapters
//
//   - SlogHandler: slog.Handler for sutureslog (supervisor events)
//   - WatermillAdapter: watermill.LoggerAdapter for the NATS event sink
//
// Always terminate log chains with .Msg() or .Send(); an unterminated chain
// emits nothing.
package logging
