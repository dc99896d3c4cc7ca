// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package main is the entry point for the covidcache server.
//
// Covidcache keeps a local DuckDB cache of UK COVID-19 statistics in
// sync with the coronavirus dashboard API and serves derived views
// (rolling averages, weekly digests, 4-week area summaries) over HTTP.
//
// Startup order:
//
//  1. Configuration: defaults, optional YAML file, environment (koanf)
//  2. Logging: zerolog, configured once globally
//  3. Cache: DuckDB with schema creation
//  4. Upstream client: rate-limited, circuit-broken dashboard client
//  5. Sync registry/manager, cleaner, use cases, HTTP router
//  6. Supervision: suture tree running the sync loop, cleaner loop and
//     HTTP server until SIGINT/SIGTERM
//
// The process exits non-zero when startup fails or the supervisor tree
// terminates with an error other than context cancellation.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ajwhitfield/covidcache/internal/api"
	"github.com/ajwhitfield/covidcache/internal/cleaner"
	"github.com/ajwhitfield/covidcache/internal/clock"
	"github.com/ajwhitfield/covidcache/internal/config"
	"github.com/ajwhitfield/covidcache/internal/covidapi"
	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/logging"
	"github.com/ajwhitfield/covidcache/internal/supervisor"
	"github.com/ajwhitfield/covidcache/internal/sync"
	"github.com/ajwhitfield/covidcache/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("database", cfg.Database.Path).
		Str("source", cfg.Source.URL).
		Msg("Starting covidcache")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer db.Close()

	client := covidapi.New(covidapi.Options{
		BaseURL:   cfg.Source.URL,
		Timeout:   cfg.Source.Timeout,
		PageSize:  cfg.Source.PageSize,
		RateLimit: cfg.Source.RateLimit,
		RateBurst: cfg.Source.RateBurst,
	})

	clk := clock.System{}
	registry := sync.NewRegistry(db, client, client, clk, cfg.Sync)
	manager := sync.NewManager(registry)
	cln := cleaner.New(db, clk, cfg.Cleaner)

	router := api.NewRouter(db, usecase.NewService(db), usecase.NewRefresher(registry, manager), clk, cfg.API)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(supervisor.NewSyncLoopService(manager, cfg.Sync.Interval))
	tree.AddDataService(supervisor.NewCleanerLoopService(cln, cfg.Cleaner.Interval))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))

	logging.Info().Str("addr", server.Addr).Msg("Serving")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}
