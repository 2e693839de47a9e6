package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/logsift/logsift/internal/adapter/anonymize"
	"github.com/logsift/logsift/internal/adapter/api"
	"github.com/logsift/logsift/internal/adapter/api/handler"
	"github.com/logsift/logsift/internal/adapter/api/middleware"
	"github.com/logsift/logsift/internal/adapter/metrics"
	"github.com/logsift/logsift/internal/adapter/repository/postgres"
	redisrepo "github.com/logsift/logsift/internal/adapter/repository/redis"
	"github.com/logsift/logsift/internal/adapter/repository/wal"
	"github.com/logsift/logsift/internal/pkg/config"
	"github.com/logsift/logsift/internal/pkg/logger"
	"github.com/logsift/logsift/internal/usecase"

	_ "github.com/lib/pq"
)

const (
	consumerGroup = "event-processors"
	serviceName   = "ingest-service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	m := metrics.NewPipelineMetrics()

	// --- Admin and metrics server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminServerAddr,
		Handler: adminMux,
	}

	go func() {
		log.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful shutdown context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	// The ingest binary may come up before the consumer; the API key check
	// and the stats queries need the tables either way.
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("could not connect to redis, will proceed in WAL-only mode", "error", err)
	}

	// --- Repositories ---
	walRepo, err := wal.NewWALRepository(cfg.WALPath, cfg.WALSegmentSize, cfg.WALMaxDiskSize, log)
	if err != nil {
		log.Error("failed to initialize WAL repository", "error", err)
		os.Exit(1)
	}
	defer walRepo.Close()

	apiKeyRepo := postgres.NewAPIKeyRepository(db, log, cfg.APIKeyCacheTTL, m)
	bufferRepo, err := redisrepo.NewAccessEventRepository(redisClient, log, consumerGroup, serviceName, cfg.RedisDLQStream, walRepo, m)
	if err != nil && !errors.Is(err, redisrepo.ErrRedisNotAvailable) {
		log.Error("failed to initialize redis event repository", "error", err)
		os.Exit(1)
	}

	// Redis health check and WAL replay loop
	go bufferRepo.StartHealthCheck(ctx, 5*time.Second)

	// --- Admin API ---
	adminRepo := redisrepo.NewAdminRepository(redisClient, log)
	adminUseCase := usecase.NewBufferAdminUseCase(adminRepo)
	adminRouter := api.NewAdminRouter(adminUseCase, log)
	adminMux.Handle("/", adminRouter)

	// --- Use cases ---
	anonymizer := anonymize.New(strings.Split(cfg.AnonymizeFields, ","), log)
	malformedCounter := redisrepo.NewMalformedCounter(redisClient, log)
	ingestUseCase := usecase.NewIngestLinesUseCase(bufferRepo, anonymizer, malformedCounter, m, log)

	statsRepo := postgres.NewStatsRepository(db, log)
	statsCache := redisrepo.NewStatsCache(redisClient, log)
	statsUseCase := usecase.NewQueryStatsUseCase(statsRepo, statsCache, malformedCounter, m, log, cfg.StatsCacheTTL)

	// --- SSE broker ---
	sseBroker := handler.NewSSEBroker(ctx, log)

	// --- Ingest server ---
	ingestRouter := api.NewRouter(cfg, log, apiKeyRepo, ingestUseCase, statsUseCase, sseBroker)
	ingestServer := &http.Server{
		Addr:         cfg.IngestServerAddr,
		Handler:      middleware.Logging(log)(ingestRouter),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Info("starting ingest server", "addr", ingestServer.Addr)
		if err := ingestServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ingest server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	log.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", "error", err)
	}
	if err := ingestServer.Shutdown(shutdownCtx); err != nil {
		log.Error("ingest server shutdown failed", "error", err)
	}

	log.Info("servers shut down gracefully")
}
