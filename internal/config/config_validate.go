// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package config

import (
	"fmt"
	"time"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateRelay(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Relay bounds
const (
	minPingInterval   = time.Second
	minPingTimeout    = time.Second
	minMaxMessageSize = 64
	maxMaxMessageSize = 1 << 20
)

// validateRelay validates heartbeat, buffer and throttle settings.
func (c *Config) validateRelay() error {
	r := c.Relay

	if r.PingInterval < minPingInterval {
		return fmt.Errorf("PING_INTERVAL must be at least %v", minPingInterval)
	}
	if r.PingTimeout < minPingTimeout {
		return fmt.Errorf("PING_TIMEOUT must be at least %v", minPingTimeout)
	}
	if r.WriteWait <= 0 {
		return fmt.Errorf("WRITE_WAIT must be positive")
	}
	if r.MaxMessageSize < minMaxMessageSize || r.MaxMessageSize > maxMaxMessageSize {
		return fmt.Errorf("MAX_MESSAGE_SIZE must be between %d and %d", minMaxMessageSize, maxMaxMessageSize)
	}
	if r.SendBuffer < 1 {
		return fmt.Errorf("SEND_BUFFER must be at least 1")
	}
	if r.UpdateRate < 0 {
		return fmt.Errorf("UPDATE_RATE must not be negative")
	}
	if r.UpdateRate > 0 && r.UpdateBurst < 1 {
		return fmt.Errorf("UPDATE_BURST must be at least 1 when UPDATE_RATE is set")
	}
	if r.LongPollEnabled {
		if r.PollWait <= 0 {
			return fmt.Errorf("POLL_WAIT must be positive")
		}
		// A held poll must return before the session is considered idle.
		if r.PollWait >= r.IdleTimeout() {
			return fmt.Errorf("POLL_WAIT (%v) must be shorter than PING_INTERVAL+PING_TIMEOUT (%v)", r.PollWait, r.IdleTimeout())
		}
		if c.Server.WriteTimeout > 0 && r.PollWait >= c.Server.WriteTimeout {
			return fmt.Errorf("POLL_WAIT (%v) must be shorter than HTTP_WRITE_TIMEOUT (%v)", r.PollWait, c.Server.WriteTimeout)
		}
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if len(c.Security.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must not be empty (use * to allow any origin)")
	}
	return c.validateRateLimits()
}

// validateRateLimits validates per-IP rate limiting bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// HasWildcardCORS reports whether any origin is allowed.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validateEvents validates the event sink (only if enabled).
func (c *Config) validateEvents() error {
	e := c.Events
	if !e.Enabled {
		return nil
	}

	if !e.EmbeddedServer {
		if e.URL == "" {
			return fmt.Errorf("NATS_URL is required when EVENTS_ENABLED=true and NATS_EMBEDDED=false")
		}
		if err := validateNATSURL(e.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	} else if e.EmbeddedPort < 1 || e.EmbeddedPort > 65535 {
		return fmt.Errorf("NATS_EMBEDDED_PORT must be between 1 and 65535")
	}

	if e.JetStream && e.EmbeddedServer && e.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required for embedded JetStream")
	}
	if e.TopicPrefix == "" {
		return fmt.Errorf("EVENTS_TOPIC_PREFIX must not be empty")
	}
	if e.QueueSize < 1 {
		return fmt.Errorf("EVENTS_QUEUE_SIZE must be at least 1")
	}
	if e.PublishTimeout <= 0 {
		return fmt.Errorf("EVENTS_PUBLISH_TIMEOUT must be positive")
	}
	if e.BreakerMaxFailures < 1 {
		return fmt.Errorf("EVENTS_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
