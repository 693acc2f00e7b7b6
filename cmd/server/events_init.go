// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/presence-relay/internal/config"
	"github.com/tomtom215/presence-relay/internal/eventsink"
	"github.com/tomtom215/presence-relay/internal/logging"
)

// EventComponents holds the optional presence event sink and, when
// configured, the embedded NATS server it publishes to.
type EventComponents struct {
	server *eventsink.EmbeddedServer
	sink   *eventsink.Sink
}

// InitEvents builds the event sink when EVENTS_ENABLED=true.
// Returns nil, nil when events are disabled.
//
// The embedded server, when enabled, is started here so the publisher can
// connect to it before the supervisor tree starts.
func InitEvents(cfg config.EventsConfig) (*EventComponents, error) {
	if !cfg.Enabled {
		logging.Info().Msg("Presence event sink disabled")
		return nil, nil
	}

	c := &EventComponents{}
	url := cfg.URL

	if cfg.EmbeddedServer {
		srv, err := eventsink.NewEmbeddedServer(eventsink.ServerConfig{
			Host:      "127.0.0.1",
			Port:      cfg.EmbeddedPort,
			JetStream: cfg.JetStream,
			StoreDir:  cfg.StoreDir,
		})
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		c.server = srv
		url = srv.ClientURL()
		logging.Info().
			Str("url", url).
			Bool("jetstream", srv.JetStreamEnabled()).
			Msg("Embedded NATS server started")
	}

	pubCfg := eventsink.DefaultPublisherConfig(url)
	pubCfg.JetStream = cfg.JetStream
	pubCfg.TopicPrefix = cfg.TopicPrefix
	pubCfg.Timeout = cfg.PublishTimeout

	pub, err := eventsink.NewNATSPublisher(pubCfg, logging.NewWatermillAdapter())
	if err != nil {
		c.shutdownServer(context.Background())
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	c.sink = eventsink.New(pub, eventsink.Config{
		TopicPrefix:        cfg.TopicPrefix,
		QueueSize:          cfg.QueueSize,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerTimeout:     cfg.BreakerTimeout,
	})

	logging.Info().
		Str("url", url).
		Str("topic_prefix", cfg.TopicPrefix).
		Bool("jetstream", cfg.JetStream).
		Msg("Presence event sink enabled")
	return c, nil
}

// Sink returns the event sink, or nil for disabled components.
func (c *EventComponents) Sink() *eventsink.Sink {
	if c == nil {
		return nil
	}
	return c.sink
}

// Shutdown closes the publisher and stops the embedded server.
// Call it after the supervisor tree has stopped so the sink has drained.
func (c *EventComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}
	if c.sink != nil {
		if err := c.sink.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event publisher")
		}
	}
	c.shutdownServer(ctx)
}

func (c *EventComponents) shutdownServer(ctx context.Context) {
	if c.server == nil {
		return
	}
	if err := c.server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Error stopping embedded NATS server")
	}
}
