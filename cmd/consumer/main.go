package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/logsift/logsift/internal/adapter/metrics"
	"github.com/logsift/logsift/internal/adapter/repository/postgres"
	redisrepo "github.com/logsift/logsift/internal/adapter/repository/redis"
	"github.com/logsift/logsift/internal/pkg/config"
	"github.com/logsift/logsift/internal/pkg/logger"
	"github.com/logsift/logsift/internal/usecase"
)

const (
	consumerGroup      = "event-processors"
	processingInterval = 1 * time.Second
	sinkRetryCount     = 3
	sinkRetryBackoff   = 1 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting consumer worker")

	m := metrics.NewPipelineMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopChan
		log.Info("shutdown signal received, stopping consumer...")
		cancel()
	}()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	// Unique consumer name for this instance
	consumerName, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		consumerName = "consumer-default"
	}

	bufferRepo, err := redisrepo.NewAccessEventRepository(redisClient, log, consumerGroup, consumerName, cfg.RedisDLQStream, nil, m)
	if err != nil {
		log.Error("failed to create redis event repository", "error", err)
		os.Exit(1)
	}
	sinkRepo := postgres.NewAccessEventRepository(db, log)

	processUseCase := usecase.NewProcessEventsUseCase(bufferRepo, sinkRepo, m, log, consumerGroup, consumerName, sinkRetryCount, sinkRetryBackoff)

	ticker := time.NewTicker(processingInterval)
	defer ticker.Stop()

	log.Info("consumer worker started, processing events...", "group", consumerGroup, "consumer", consumerName)

Loop:
	for {
		select {
		case <-ticker.C:
			if _, err := processUseCase.ProcessBatch(ctx); err != nil {
				log.Error("error processing batch", "error", err)
			}
		case <-ctx.Done():
			log.Info("context cancelled, shutting down consumer loop")
			break Loop
		}
	}

	log.Info("consumer worker shut down gracefully")
}
