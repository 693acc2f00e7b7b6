// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/presence-relay/internal/api"
	"github.com/tomtom215/presence-relay/internal/config"
	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/longpoll"
	"github.com/tomtom215/presence-relay/internal/presence"
	"github.com/tomtom215/presence-relay/internal/supervisor"
	"github.com/tomtom215/presence-relay/internal/supervisor/services"
	ws "github.com/tomtom215/presence-relay/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Dur("ping_interval", cfg.Relay.PingInterval).
		Dur("ping_timeout", cfg.Relay.PingTimeout).
		Bool("backfill_on_join", cfg.Relay.BackfillOnJoin).
		Bool("longpoll_enabled", cfg.Relay.LongPollEnabled).
		Bool("events_enabled", cfg.Events.Enabled).
		Msg("Starting presence relay")

	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS_ORIGINS allows every origin; set explicit origins in production")
	}

	events, err := InitEvents(cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event sink")
	}

	relayOpts := presence.Options{
		BackfillOnJoin: cfg.Relay.BackfillOnJoin,
		GaugeInterval:  15 * time.Second,
	}
	if sink := events.Sink(); sink != nil {
		relayOpts.Observer = sink
	}
	relay := presence.NewRelay(relayOpts)

	wsHandler := ws.NewHandler(relay, ws.OptionsFromConfig(cfg.Relay), cfg.Security.CORSOrigins)

	var pollManager *longpoll.Manager
	if cfg.Relay.LongPollEnabled {
		pollManager = longpoll.NewManager(relay, longpoll.OptionsFromConfig(cfg.Relay))
	}

	router := api.NewRouter(relay, wsHandler, pollManager, api.NewChiMiddlewareFromSecurity(cfg.Security))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddMessagingService(services.NewRelayService(relay))
	if pollManager != nil {
		tree.AddMessagingService(services.NewLongPollService(pollManager))
	}
	if sink := events.Sink(); sink != nil {
		tree.AddMessagingService(services.NewEventSinkService(sink))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	// === START SUPERVISOR TREE ===

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	// The sink has drained by now; close the publisher and broker.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	events.Shutdown(shutdownCtx)

	logging.Info().Msg("Presence relay stopped gracefully")
}
