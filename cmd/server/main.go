// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/pizzahunt/internal/api"
	"github.com/tomtom215/pizzahunt/internal/config"
	"github.com/tomtom215/pizzahunt/internal/database"
	"github.com/tomtom215/pizzahunt/internal/events"
	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/metrics"
	"github.com/tomtom215/pizzahunt/internal/supervisor"
	"github.com/tomtom215/pizzahunt/internal/supervisor/services"
	ws "github.com/tomtom215/pizzahunt/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	api.Version = version
	metrics.AppInfo.WithLabelValues(version, "server").Set(1)

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Bool("nats", cfg.NATS.Enabled).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Pizza Hunt server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}

	bus, err := events.NewBus(&cfg.NATS)
	if err != nil {
		closeDB(db)
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	logging.Info().Str("backend", bus.Backend()).Msg("Event bus ready")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if len(cfg.Security.CORSOrigins) == 1 && cfg.Security.CORSOrigins[0] == "*" && cfg.Server.Environment == "production" {
		logging.Warn().Msg("CORS allows any origin in production; set CORS_ORIGINS to the web client's origin")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		Name:             "pizzahunt",
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	wsHub := ws.NewHub()
	tree.AddMessagingService(wsHub)
	tree.AddMessagingService(events.NewService(bus, wsHub.HandleEvent))

	handler := api.NewHandler(db, cfg, bus, wsHub)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, "http-server", 10*time.Second))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errCh := tree.ServeBackground(ctx)
	logging.Info().Str("addr", server.Addr).Msg("Supervisor tree started")

	select {
	case sig := <-sigChan:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(15 * time.Second):
		logging.Warn().Msg("Supervisor tree did not stop in time")
		if report, err := tree.UnstoppedServiceReport(); err == nil {
			for _, svc := range report {
				logging.Warn().Str("service", svc.Name).Msg("Service did not stop")
			}
		}
	}

	if err := bus.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event bus")
	}
	closeDB(db)
	logging.Info().Msg("Server stopped")
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}
