package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/logsift/logsift/internal/adapter/metrics"
	"github.com/logsift/logsift/internal/domain"
)

const eventStreamKey = "access_events"

// ErrRedisNotAvailable reports that the buffer could not be reached during
// startup. Callers may proceed in WAL-only mode.
var ErrRedisNotAvailable = errors.New("redis is not available")

var errNotImplemented = errors.New("method not implemented for this repository type")

// AccessEventRepository implements the buffer side of
// domain.AccessEventRepository on Redis Streams, with a file-based WAL as
// failover when Redis is unreachable.
type AccessEventRepository struct {
	client       *redis.Client
	logger       *slog.Logger
	wal          domain.WALRepository
	metrics      *metrics.PipelineMetrics
	dlqStreamKey string
	isAvailable  atomic.Bool
}

// NewAccessEventRepository creates a new Redis-backed event repository.
// The WAL is optional; pass nil if not needed (e.g., for consumers).
func NewAccessEventRepository(client *redis.Client, logger *slog.Logger, group, consumer, dlqStreamKey string, wal domain.WALRepository, m *metrics.PipelineMetrics) (*AccessEventRepository, error) {
	repo := &AccessEventRepository{
		client:       client,
		logger:       logger.With("component", "redis_repository"),
		wal:          wal,
		metrics:      m,
		dlqStreamKey: dlqStreamKey,
	}
	repo.isAvailable.Store(true)

	if err := repo.setupConsumerGroup(context.Background(), group); err != nil {
		repo.isAvailable.Store(false)
		repo.logger.Error("failed to setup consumer group, redis may be unavailable on startup", "error", err)
		return repo, ErrRedisNotAvailable
	}

	return repo, nil
}

// StartHealthCheck monitors Redis connectivity and triggers WAL replay once
// the connection recovers. It blocks until ctx is cancelled.
func (r *AccessEventRepository) StartHealthCheck(ctx context.Context, interval time.Duration) {
	if r.wal == nil {
		r.logger.Info("WAL is not configured, skipping health check/replayer")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("starting redis health check and WAL replayer")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping redis health check")
			return
		case <-ticker.C:
			err := r.client.Ping(ctx).Err()
			if err != nil {
				if r.isAvailable.CompareAndSwap(true, false) {
					r.setWALActive(true)
					r.logger.Error("redis connection lost", "error", err)
				}
			} else {
				if r.isAvailable.CompareAndSwap(false, true) {
					r.logger.Info("redis connection recovered")
					if err := r.ReplayWAL(ctx); err != nil {
						r.logger.Error("failed to replay WAL after redis recovery", "error", err)
						r.isAvailable.Store(false)
						continue
					}
					r.setWALActive(false)
				}
			}
		}
	}
}

// ReplayWAL replays events from the WAL to Redis and truncates the WAL on success.
func (r *AccessEventRepository) ReplayWAL(ctx context.Context) error {
	r.logger.Info("attempting to replay WAL to redis")
	replayHandler := func(event domain.AccessEvent) error {
		return r.bufferEventToRedis(ctx, event)
	}

	if err := r.wal.Replay(ctx, replayHandler); err != nil {
		return fmt.Errorf("WAL replay failed: %w", err)
	}

	if err := r.wal.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate WAL after successful replay: %w", err)
	}

	r.logger.Info("WAL replay to redis completed successfully")
	return nil
}

func (r *AccessEventRepository) setupConsumerGroup(ctx context.Context, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, eventStreamKey, group, "0").Err()
	if err != nil && !isRedisBusyGroupError(err) {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// BufferEvent adds an event to the stream, falling back to the WAL if Redis
// is unavailable.
func (r *AccessEventRepository) BufferEvent(ctx context.Context, event domain.AccessEvent) error {
	if !r.isAvailable.Load() {
		if r.wal == nil {
			return errors.New("redis is unavailable and WAL is not configured")
		}
		r.logger.Warn("redis is unavailable, writing to WAL", "event_id", event.EventID)
		return r.wal.Write(ctx, event)
	}

	err := r.bufferEventToRedis(ctx, event)
	if err != nil {
		if isNetworkError(err) {
			if r.isAvailable.CompareAndSwap(true, false) {
				r.setWALActive(true)
				r.logger.Error("redis connection lost during write", "error", err)
			}
			if r.wal == nil {
				return fmt.Errorf("redis became unavailable and WAL is not configured: %w", err)
			}
			r.logger.Warn("redis became unavailable, writing to WAL", "event_id", event.EventID)
			return r.wal.Write(ctx, event)
		}
		return err
	}
	return nil
}

func (r *AccessEventRepository) bufferEventToRedis(ctx context.Context, event domain.AccessEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal access event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: eventStreamKey,
		Values: map[string]interface{}{"payload": payload},
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to redis stream: %w", err)
	}
	return nil
}

// ReadEventBatch reads a batch of events from the stream for a consumer group.
func (r *AccessEventRepository) ReadEventBatch(ctx context.Context, group, consumer string, count int) ([]domain.AccessEvent, error) {
	args := &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{eventStreamKey, ">"},
		Count:    int64(count),
		Block:    2 * time.Second,
	}

	streams, err := r.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP from redis: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	messages := streams[0].Messages
	events := make([]domain.AccessEvent, 0, len(messages))
	for _, msg := range messages {
		payload, ok := msg.Values["payload"].(string)
		if !ok {
			r.logger.Warn("invalid message format in stream, skipping", "message_id", msg.ID)
			continue
		}

		var event domain.AccessEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			r.logger.Warn("failed to unmarshal access event from stream, skipping", "message_id", msg.ID, "error", err)
			continue
		}
		event.StreamMessageID = msg.ID
		events = append(events, event)
	}

	return events, nil
}

// AcknowledgeEvents acknowledges processed messages in the stream.
func (r *AccessEventRepository) AcknowledgeEvents(ctx context.Context, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := r.client.XAck(ctx, eventStreamKey, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("failed to XACK messages in redis: %w", err)
	}
	return nil
}

// MoveToDLQ moves a batch of events to the dead-letter stream.
func (r *AccessEventRepository) MoveToDLQ(ctx context.Context, events []domain.AccessEvent) error {
	if len(events) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			r.logger.Error("failed to marshal event for DLQ", "event_id", event.EventID, "error", err)
			continue
		}
		args := &redis.XAddArgs{
			Stream: r.dlqStreamKey,
			Values: map[string]interface{}{
				"payload":         payload,
				"original_stream": eventStreamKey,
				"original_msg_id": event.StreamMessageID,
				"failed_at":       time.Now().UTC().Format(time.RFC3339),
			},
		}
		pipe.XAdd(ctx, args)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to execute DLQ pipeline: %w", err)
	}
	r.logger.Warn("moved events to DLQ", "count", len(events))
	return nil
}

// WriteEventBatch is not implemented for the buffer repository.
func (r *AccessEventRepository) WriteEventBatch(ctx context.Context, events []domain.AccessEvent) error {
	return errNotImplemented
}

func (r *AccessEventRepository) setWALActive(active bool) {
	if r.metrics == nil {
		return
	}
	if active {
		r.metrics.WALActive.Set(1)
	} else {
		r.metrics.WALActive.Set(0)
	}
}

func isRedisBusyGroupError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
