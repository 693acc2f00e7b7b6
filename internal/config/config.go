// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// config file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Configuration Categories:
//   - Server: HTTP listener (host, port, timeouts)
//   - Relay: heartbeat, buffers, backfill, update throttling, long-poll fallback
//   - Security: allowed origins and upgrade rate limits
//   - Logging: level, format, caller
//   - Events: optional NATS presence event sink
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Relay    RelayConfig    `koanf:"relay"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Events   EventsConfig   `koanf:"events"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RelayConfig holds presence relay behavior.
type RelayConfig struct {
	// PingInterval is how often the server pings an idle websocket peer.
	// Default: 25s
	PingInterval time.Duration `koanf:"ping_interval"`

	// PingTimeout is how long after a missed ping the peer is considered dead.
	// A connection with no inbound traffic for PingInterval+PingTimeout is closed.
	// Default: 30s
	PingTimeout time.Duration `koanf:"ping_timeout"`

	// WriteWait bounds a single websocket write.
	// Default: 10s
	WriteWait time.Duration `koanf:"write_wait"`

	// MaxMessageSize is the largest inbound frame or long-poll body in bytes.
	// Default: 4096
	MaxMessageSize int64 `koanf:"max_message_size"`

	// SendBuffer is the per-connection outbound queue length.
	// Events for a connection whose queue is full are dropped.
	// Default: 256
	SendBuffer int `koanf:"send_buffer"`

	// BackfillOnJoin sends a new connection the last known location of every
	// located peer before the count broadcast.
	// Default: true
	BackfillOnJoin bool `koanf:"backfill_on_join"`

	// UpdateRate is the sustained location updates per second allowed per connection.
	// 0 disables throttling.
	// Default: 10
	UpdateRate float64 `koanf:"update_rate"`

	// UpdateBurst is the token bucket size for UpdateRate. Ignored when
	// UpdateRate is 0.
	// Default: 20
	UpdateBurst int `koanf:"update_burst"`

	// LongPollEnabled mounts the /poll fallback transport.
	// Default: true
	LongPollEnabled bool `koanf:"longpoll_enabled"`

	// PollWait is how long GET /poll/{sid} holds a request open waiting for events.
	// Must be shorter than PingInterval+PingTimeout.
	// Default: 20s
	PollWait time.Duration `koanf:"poll_wait"`
}

// IdleTimeout returns the inbound silence budget after which a connection is dead.
func (r RelayConfig) IdleTimeout() time.Duration {
	return r.PingInterval + r.PingTimeout
}

// SecurityConfig holds origin and rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// EventsConfig configures the optional presence event sink.
//
// When enabled, joins, location changes and leaves are published to NATS on
// <topic_prefix>.joined, <topic_prefix>.location and <topic_prefix>.left.
type EventsConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	EmbeddedPort   int           `koanf:"embedded_port"`
	JetStream      bool          `koanf:"jetstream"`
	StoreDir       string        `koanf:"store_dir"`
	TopicPrefix    string        `koanf:"topic_prefix"`
	QueueSize      int           `koanf:"queue_size"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`

	// Circuit breaker around publishes.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// Load reads configuration from (in order of precedence, lowest first):
//  1. Built-in defaults
//  2. Config file (CONFIG_PATH, config.yaml or /etc/presence-relay/config.yaml)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
