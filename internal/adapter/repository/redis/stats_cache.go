package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsCache implements domain.StatsCache on plain Redis keys. Aggregation
// results are JSON-encoded and expire after the configured TTL, so repeated
// dashboard polls do not hammer the sink.
type StatsCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStatsCache creates a new Redis-backed stats cache.
func NewStatsCache(client *redis.Client, logger *slog.Logger) *StatsCache {
	return &StatsCache{
		client: client,
		logger: logger.With("component", "stats_cache"),
	}
}

// Get unmarshals the cached value for key into dest, reporting whether the
// key was present. A broken cache entry is treated as a miss.
func (c *StatsCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to GET stats cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		c.logger.Warn("dropping undecodable stats cache entry", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Set stores value under key for at most ttl.
func (c *StatsCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal stats cache value: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to SET stats cache key %s: %w", key, err)
	}
	return nil
}
