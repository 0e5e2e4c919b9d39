// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/couchside/internal/api"
	"github.com/tomtom215/couchside/internal/cache"
	"github.com/tomtom215/couchside/internal/config"
	"github.com/tomtom215/couchside/internal/database"
	"github.com/tomtom215/couchside/internal/eventprocessor"
	"github.com/tomtom215/couchside/internal/logging"
	"github.com/tomtom215/couchside/internal/recommend"
	"github.com/tomtom215/couchside/internal/recommend/embedding"
	"github.com/tomtom215/couchside/internal/supervisor"
	"github.com/tomtom215/couchside/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("vectors_in_memory", cfg.Badger.Path == "").
		Msg("Starting Couchside with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	if cfg.Database.SeedDemoData {
		logging.Info().Msg("Demo data seeding enabled")
		if err := db.SeedDemoData(ctx); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing database")
			}
			logging.Fatal().Err(err).Msg("Failed to seed demo data")
		}
	}

	// Vector store: badger behind a circuit breaker, ephemeral fallback.
	vectorDB, err := embedding.OpenBadger(cfg.Badger.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open vector store")
	}
	defer func() {
		if err := vectorDB.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing vector store")
		}
	}()
	vectors := embedding.NewStored(embedding.NewBadgerStore(vectorDB), embedding.BreakerConfig{
		FailureThreshold: cfg.Badger.BreakerFailures,
		Timeout:          cfg.Badger.BreakerTimeout,
	})

	engineCfg, err := engineConfig(&cfg.Recommend)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid recommendation settings")
	}
	engine, err := recommend.NewEngine(engineCfg, db, vectors, logging.WithComponent("recommend"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	resultCache, closeCache, err := newResultCache(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Cache.Backend).Msg("Failed to initialize result cache")
	}
	defer func() {
		if err := closeCache(); err != nil {
			logging.Error().Err(err).Msg("Error closing result cache")
		}
	}()
	slates := cache.NewLoader(resultCache, logging.WithComponent("cache"))

	// In-process events: writes publish, the router invalidates and re-embeds.
	wmLogger := logging.NewWatermillAdapter(logging.Logger())
	pubSub := eventprocessor.NewPubSub(cfg.Events, wmLogger)
	defer func() {
		if err := pubSub.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event pubsub")
		}
	}()
	publisher, err := eventprocessor.NewPublisher(pubSub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event publisher")
	}

	handler := api.NewHandler(db, db, vectors, engine, slates, publisher, api.HandlerConfig{
		DefaultCount: cfg.Recommend.DefaultCount,
		MaxCount:     cfg.Recommend.MaxCount,
		RankTimeout:  cfg.Server.RankTimeout,
	})
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (rate_limit_disabled=true)")
	}
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFrom(cfg.Security))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	tree.AddDataService(services.NewEmbeddingBackfillService(db, vectors, services.BackfillConfig{
		Interval: cfg.Badger.BackfillInterval,
	}, logging.WithComponent("supervisor")))

	// Messaging layer
	tree.AddMessagingService(services.NewEventRouterService(routerFactory(routerDeps{
		config:     cfg.Events,
		subscriber: pubSub,
		slates:     slates,
		reader:     db,
		indexer:    vectors,
		logger:     wmLogger,
	}), logging.WithComponent("supervisor")))

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
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
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
