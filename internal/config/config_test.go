// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package config

import (
	"strings"
	"testing"
	"time"
)

func TestServerConfigAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 4000}
	if got := s.Addr(); got != "127.0.0.1:4000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:4000", got)
	}

	s = ServerConfig{Host: "::1", Port: 80}
	if got := s.Addr(); got != "[::1]:80" {
		t.Errorf("Addr() = %q, want [::1]:80", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "PORT",
		},
		{
			name:    "tiny ping interval",
			mutate:  func(c *Config) { c.Relay.PingInterval = 10 * time.Millisecond },
			wantErr: "PING_INTERVAL",
		},
		{
			name:    "zero send buffer",
			mutate:  func(c *Config) { c.Relay.SendBuffer = 0 },
			wantErr: "SEND_BUFFER",
		},
		{
			name:    "message size too small",
			mutate:  func(c *Config) { c.Relay.MaxMessageSize = 8 },
			wantErr: "MAX_MESSAGE_SIZE",
		},
		{
			name:    "negative update rate",
			mutate:  func(c *Config) { c.Relay.UpdateRate = -1 },
			wantErr: "UPDATE_RATE",
		},
		{
			name:    "rate without burst",
			mutate:  func(c *Config) { c.Relay.UpdateBurst = 0 },
			wantErr: "UPDATE_BURST",
		},
		{
			name:   "throttle disabled needs no burst",
			mutate: func(c *Config) { c.Relay.UpdateRate = 0; c.Relay.UpdateBurst = 0 },
		},
		{
			name:    "poll wait longer than write timeout",
			mutate:  func(c *Config) { c.Server.WriteTimeout = 5 * time.Second },
			wantErr: "HTTP_WRITE_TIMEOUT",
		},
		{
			name:   "long-poll disabled skips poll checks",
			mutate: func(c *Config) { c.Relay.LongPollEnabled = false; c.Relay.PollWait = 0 },
		},
		{
			name:    "empty origins",
			mutate:  func(c *Config) { c.Security.CORSOrigins = nil },
			wantErr: "CORS_ORIGINS",
		},
		{
			name:    "rate limit window too long",
			mutate:  func(c *Config) { c.Security.RateLimitWindow = 2 * time.Hour },
			wantErr: "RATE_LIMIT_WINDOW",
		},
		{
			name:   "rate limit disabled skips bounds",
			mutate: func(c *Config) { c.Security.RateLimitDisabled = true; c.Security.RateLimitReqs = 0 },
		},
		{
			name:    "events enabled without url",
			mutate:  func(c *Config) { c.Events.Enabled = true; c.Events.URL = "" },
			wantErr: "NATS_URL is required",
		},
		{
			name:   "events embedded ignores url",
			mutate: func(c *Config) { c.Events.Enabled = true; c.Events.EmbeddedServer = true; c.Events.URL = "" },
		},
		{
			name:    "events zero queue",
			mutate:  func(c *Config) { c.Events.Enabled = true; c.Events.QueueSize = 0 },
			wantErr: "EVENTS_QUEUE_SIZE",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNATSURL(t *testing.T) {
	t.Parallel()

	valid := []string{"nats://127.0.0.1:4222", "tls://nats.example.com:4222", "ws://localhost:8080", "wss://nats.example.com"}
	for _, u := range valid {
		if err := validateNATSURL(u); err != nil {
			t.Errorf("validateNATSURL(%q) unexpected error: %v", u, err)
		}
	}

	invalid := []string{"http://localhost:4222", "nats://", "://bad"}
	for _, u := range invalid {
		if err := validateNATSURL(u); err == nil {
			t.Errorf("validateNATSURL(%q) expected error", u)
		}
	}
}

func TestHasWildcardCORS(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if !cfg.HasWildcardCORS() {
		t.Error("default config should allow any origin")
	}

	cfg.Security.CORSOrigins = []string{"https://map.example.com"}
	if cfg.HasWildcardCORS() {
		t.Error("explicit origin list should not be wildcard")
	}
}
