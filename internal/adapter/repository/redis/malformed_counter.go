package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const malformedCounterKey = "malformed_lines_total"

// MalformedCounter implements domain.MalformedCounter on a single Redis key.
// The ingest path increments it once per request with the request's
// malformed-line count, so the counter stays off the per-line hot path.
type MalformedCounter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewMalformedCounter creates a new Redis-backed malformed-line counter.
func NewMalformedCounter(client *redis.Client, logger *slog.Logger) *MalformedCounter {
	return &MalformedCounter{
		client: client,
		logger: logger.With("component", "malformed_counter"),
	}
}

// Add increments the total by delta. Non-positive deltas are ignored.
func (c *MalformedCounter) Add(ctx context.Context, delta int64) error {
	if delta <= 0 {
		return nil
	}
	if err := c.client.IncrBy(ctx, malformedCounterKey, delta).Err(); err != nil {
		return fmt.Errorf("failed to INCRBY malformed counter: %w", err)
	}
	return nil
}

// Total returns the current total. A missing key reads as zero.
func (c *MalformedCounter) Total(ctx context.Context) (int64, error) {
	total, err := c.client.Get(ctx, malformedCounterKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to GET malformed counter: %w", err)
	}
	return total, nil
}
