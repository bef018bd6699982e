package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/rpattn/recordsearch/internal/api"
	"github.com/rpattn/recordsearch/internal/config"
	"github.com/rpattn/recordsearch/internal/db"
	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/ingestion"
	"github.com/rpattn/recordsearch/internal/lookup"
	"github.com/rpattn/recordsearch/internal/metrics"
	"github.com/rpattn/recordsearch/internal/registry"
	"github.com/rpattn/recordsearch/internal/repository"
	"github.com/rpattn/recordsearch/internal/search"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("RECORDSEARCH_CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	// Records catalog
	var repo repository.RecordRepository
	if cfg.Lookup.Backend == config.BackendDatabase {
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.RunMigrations(cfg.Database); err != nil {
			return err
		}
		repo = repository.NewRecordRepository(conn)
	} else {
		repo = repository.NewMemoryRecordRepository()
	}

	// Optional redis cache in front of every backend
	var cache *lookup.Cached
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return err
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		cache = lookup.NewCached(nil, client, cfg.Redis.TTL,
			lookup.WithCacheLogger(logger),
			lookup.WithFlightTimeout(cfg.Lookup.Timeout),
		)
	}

	chain := lookup.ChainConfig{Cache: cache, Observer: m, Timeout: cfg.Lookup.Timeout}

	var requestLookup func() domain.EntityLookup
	if cfg.Lookup.Backend == config.BackendGraphQL {
		shared := lookup.Chain(lookup.NewGraphQL(cfg.Lookup.Endpoint, &http.Client{Timeout: cfg.Lookup.Timeout}, nil), chain)
		requestLookup = func() domain.EntityLookup { return shared }
	} else {
		requestLookup = func() domain.EntityLookup {
			return lookup.Chain(lookup.NewBatched(repo, cfg.Lookup.BatchWait), chain)
		}
	}

	rehydrator := search.NewRehydrator(
		registry.Default(),
		nil, // every request gets its own lookup from the middleware
		search.WithLogger(logger),
		search.WithRecorder(m),
		search.WithConcurrency(cfg.Lookup.Concurrency),
	)

	router := api.NewRouter(api.RouterConfig{
		Search:   api.New(rehydrator, logger),
		Records:  api.NewRecordsHandler(repo, logger),
		Import:   ingestion.NewHTTPHandler(ingestion.NewService(repo, logger)),
		Lookup:   requestLookup,
		Gatherer: promRegistry,
		Logger:   logger,
	})

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	// Start server in a goroutine
	go func() {
		logger.Info("Starting search server", "addr", cfg.Server.Addr, "lookup_backend", cfg.Lookup.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return err
	}
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server exited")
	return nil
}
