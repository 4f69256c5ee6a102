// Package main is the entry point for the API service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conformeahq/conformea/internal/routes"
	"github.com/conformeahq/conformea/pkg/config"
	"github.com/conformeahq/conformea/pkg/database"
	"github.com/conformeahq/conformea/pkg/events"
	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/telemetry"
)

// Build information (set via ldflags).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log = log.WithService("api")

	log.Info("starting API service",
		"version", version,
		"build_time", buildTime,
		"git_commit", gitCommit,
		"env", cfg.Env,
	)

	// Create context that listens for shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	tp, err := telemetry.NewProvider(cfg.Telemetry, "conformea-api", version, cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// Connect to database
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	log.Info("connected to database")

	// Event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kp, err := events.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("failed to connect to Kafka: %w", err)
		}
		publisher = kp
		log.Info("connected to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("publisher close failed", "error", err)
		}
	}()

	// Build router
	router := routes.New(routes.Config{
		DB:        db,
		Config:    cfg,
		Logger:    log,
		Publisher: publisher,
		BuildInfo: routes.BuildInfo{
			Version:   version,
			BuildTime: buildTime,
			GitCommit: gitCommit,
		},
	})

	var handler http.Handler = router
	if cfg.Telemetry.Enabled {
		handler = telemetry.HTTPMiddleware("conformea-api")(handler)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.API.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.API.ShutdownTimeout)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
			if err := server.Close(); err != nil {
				return fmt.Errorf("forced shutdown error: %w", err)
			}
		}

		log.Info("server shutdown complete")
	}

	return nil
}
