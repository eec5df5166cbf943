// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package main is the entry point for the Redline server.
//
// Redline ingests security log events from application and infrastructure
// sources, redacts PII, normalizes and clusters related events into
// incidents, and exposes a query API for analysts to triage, fetch evidence
// for, and approve remediation actions on those incidents.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 load (defaults, config file, env vars)
//  2. Logging: zerolog, configured from Logging settings
//  3. Storage: embedded DuckDB incident store
//  4. Aggregator: the ingest pipeline's redact/normalize/cluster stages
//  5. HTTP server: chi router exposing the ingest and query surfaces
//  6. Supervisor tree: supervises the HTTP server and a periodic WAL
//     checkpoint service, restarting either independently on failure
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests to complete (per
// Server.Timeout), then closes the database.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/redline-soc/redline/internal/api"
	"github.com/redline-soc/redline/internal/config"
	"github.com/redline-soc/redline/internal/ingest"
	"github.com/redline-soc/redline/internal/logging"
	"github.com/redline-soc/redline/internal/metrics"
	"github.com/redline-soc/redline/internal/store"
	"github.com/redline-soc/redline/internal/supervisor"
)

const checkpointInterval = 5 * time.Minute

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("starting redline")

	db, err := store.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing storage")
		}
	}()
	logging.Info().Str("path", cfg.Database.Path).Msg("storage initialized")

	metrics.AppInfo.WithLabelValues("dev", runtime.Version()).Set(1)

	agg := ingest.New(db, &cfg.Pipeline)
	router := api.NewRouter(db, agg, cfg)

	shutdownTimeout, err := time.ParseDuration(cfg.Server.Timeout)
	if err != nil || shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  shutdownTimeout,
		WriteTimeout: shutdownTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appStart := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.AppUptime.Set(time.Since(appStart).Seconds())
			}
		}
	}()

	tree := supervisor.New(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.Add(supervisor.NewHTTPServerService(httpServer, shutdownTimeout))
	tree.Add(supervisor.NewCheckpointService(db, checkpointInterval))

	logging.Info().
		Str("addr", httpServer.Addr).
		Msg("listening")

	if err := tree.Serve(ctx); err != nil && err != context.Canceled {
		logging.Error().Err(err).Msg("supervisor tree exited with error")
	}

	logging.Info().Msg("redline stopped")
}
