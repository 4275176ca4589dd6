package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridhawk-systems/charger-telemetry/internal/config"
	"github.com/gridhawk-systems/charger-telemetry/internal/dlq"
	"github.com/gridhawk-systems/charger-telemetry/internal/enricher"
	"github.com/gridhawk-systems/charger-telemetry/internal/handlers"
	"github.com/gridhawk-systems/charger-telemetry/internal/health"
	"github.com/gridhawk-systems/charger-telemetry/internal/logging"
	"github.com/gridhawk-systems/charger-telemetry/internal/pipeline"
	"github.com/gridhawk-systems/charger-telemetry/internal/query"
	"github.com/gridhawk-systems/charger-telemetry/internal/ratelimit"
	"github.com/gridhawk-systems/charger-telemetry/internal/server"
	"github.com/gridhawk-systems/charger-telemetry/internal/service"
	"github.com/gridhawk-systems/charger-telemetry/internal/store"
	"github.com/gridhawk-systems/charger-telemetry/internal/validator"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("telemetryd"))
	logging.SetDefault(logger)

	slog.Info("Starting telemetry service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Redis backs both the record store and the rate limiter.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis not reachable at startup, continuing anyway",
			slog.String("addr", cfg.Redis.Addr), logging.Err(err))
	}
	pingCancel()

	recordStore := store.NewRedisStore(redisClient, store.WithRecordTTL(cfg.Ingestion.RecordTTL))
	slog.Info("Record store initialized",
		slog.String("redis_addr", cfg.Redis.Addr),
		slog.Duration("record_ttl", cfg.Ingestion.RecordTTL),
	)

	// Initialize Dead Letter Queue
	var deadLetter dlq.Queue
	switch cfg.DLQ.Backend {
	case "nats", "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		jsQueue, err := dlq.NewJetStreamQueue(ctx, cfg.DLQ.NATSURL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to initialize JetStream DLQ: %v", err)
		}
		defer jsQueue.Close()
		deadLetter = jsQueue
		slog.Info("Dead letter queue enabled",
			slog.String("backend", "nats"), slog.String("nats_url", cfg.DLQ.NATSURL))
	case "file":
		fileQueue, err := dlq.NewFileQueue(cfg.DLQ.BasePath)
		if err != nil {
			log.Fatalf("Failed to initialize file DLQ: %v", err)
		}
		deadLetter = fileQueue
		slog.Info("Dead letter queue enabled",
			slog.String("backend", "file"), slog.String("path", cfg.DLQ.BasePath))
		slog.Warn("File-based DLQ does not support multiple service instances")
	case "none":
		slog.Warn("Dead letter queue disabled, exhausted events will be dropped")
	default:
		log.Fatalf("Unknown DLQ backend: %s (supported: nats, file, none)", cfg.DLQ.Backend)
	}

	// Initialize rate limiter
	var limiter ratelimit.RateLimiter = ratelimit.NoOpRateLimiter{}
	if cfg.Ingestion.RateLimitEnabled {
		limiter = ratelimit.NewRedisRateLimiter(
			redisClient,
			cfg.Ingestion.RateLimitRequests,
			cfg.Ingestion.RateLimitWindow,
		)
		slog.Info("Rate limiting enabled",
			slog.Int("requests", cfg.Ingestion.RateLimitRequests),
			slog.Duration("window", cfg.Ingestion.RateLimitWindow),
		)
	}

	// Assemble the processing pipeline
	pipe := pipeline.New(
		validator.New(validator.WithSkewTolerance(cfg.Ingestion.ClockSkewTolerance)),
		enricher.New(),
		recordStore,
	)
	processor := service.NewProcessor(pipe, deadLetter,
		service.WithMaxAttempts(cfg.Ingestion.MaxAttempts),
		service.WithRetryDelay(cfg.Ingestion.RetryDelay),
	)
	queries := query.New(recordStore)
	aggregator := health.New(recordStore, deadLetter,
		health.WithDegradedThreshold(cfg.Health.DLQDegradedThreshold))

	// Initialize HTTP handlers
	telemetryHandler := handlers.NewTelemetryHandler(processor, queries, limiter)
	healthHandler := handlers.NewHealthHandler(aggregator)
	router := server.NewRouter(telemetryHandler, healthHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Telemetry service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server stopped")
}
