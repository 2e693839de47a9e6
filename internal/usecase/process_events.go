package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/logsift/logsift/internal/adapter/metrics"
	"github.com/logsift/logsift/internal/domain"
)

const defaultBatchSize = 1000

// ProcessEventsUseCase orchestrates draining the buffer into the sink: read
// a batch, write it to PostgreSQL, acknowledge it in the stream. Batches
// that keep failing are parked on the dead-letter stream so one poison batch
// cannot wedge the consumer.
type ProcessEventsUseCase struct {
	bufferRepo   domain.AccessEventRepository
	sinkRepo     domain.AccessEventRepository
	metrics      *metrics.PipelineMetrics
	logger       *slog.Logger
	group        string
	consumer     string
	retryCount   int
	retryBackoff time.Duration
}

// NewProcessEventsUseCase creates a new use case for processing events.
func NewProcessEventsUseCase(bufferRepo, sinkRepo domain.AccessEventRepository, m *metrics.PipelineMetrics, logger *slog.Logger, group, consumer string, retryCount int, retryBackoff time.Duration) *ProcessEventsUseCase {
	return &ProcessEventsUseCase{
		bufferRepo:   bufferRepo,
		sinkRepo:     sinkRepo,
		metrics:      m,
		logger:       logger,
		group:        group,
		consumer:     consumer,
		retryCount:   retryCount,
		retryBackoff: retryBackoff,
	}
}

// ProcessBatch reads a batch of events, writes them to the sink, and
// acknowledges them in the buffer on success. It returns the number of
// events that reached the sink.
func (uc *ProcessEventsUseCase) ProcessBatch(ctx context.Context) (int, error) {
	events, err := uc.bufferRepo.ReadEventBatch(ctx, uc.group, uc.consumer, defaultBatchSize)
	if err != nil {
		uc.logger.Error("failed to read event batch from buffer", "error", err)
		return 0, err
	}

	if len(events) == 0 {
		return 0, nil // No new events, not an error
	}

	uc.logger.Debug("read batch of events from buffer", "count", len(events))

	start := time.Now()
	err = uc.writeWithRetry(ctx, events)
	if err != nil {
		uc.logger.Error("failed to write event batch to sink after retries, moving to DLQ", "error", err)
		if dlqErr := uc.bufferRepo.MoveToDLQ(ctx, events); dlqErr != nil {
			uc.logger.Error("failed to move batch to DLQ, it will be redelivered", "error", dlqErr)
			return 0, err
		}
		// The batch is parked; ack it so it is not redelivered forever.
		if ackErr := uc.acknowledge(ctx, events); ackErr != nil {
			uc.logger.Error("failed to acknowledge DLQ'd batch", "error", ackErr)
		}
		return 0, err
	}
	if uc.metrics != nil {
		uc.metrics.SinkBatchSeconds.Observe(time.Since(start).Seconds())
		uc.metrics.SinkedEventsTotal.Add(float64(len(events)))
	}

	if err := uc.acknowledge(ctx, events); err != nil {
		uc.logger.Error("failed to acknowledge events in buffer", "error", err)
		// Events are in the sink but unacked. They will be redelivered and
		// the sink upsert makes the redelivery idempotent.
		return 0, err
	}

	uc.logger.Info("successfully processed and sinked event batch", "count", len(events))
	return len(events), nil
}

func (uc *ProcessEventsUseCase) acknowledge(ctx context.Context, events []domain.AccessEvent) error {
	messageIDs := make([]string, len(events))
	for i, event := range events {
		messageIDs[i] = event.StreamMessageID
	}
	return uc.bufferRepo.AcknowledgeEvents(ctx, uc.group, messageIDs...)
}

func (uc *ProcessEventsUseCase) writeWithRetry(ctx context.Context, events []domain.AccessEvent) error {
	var lastErr error
	for i := 0; i < uc.retryCount; i++ {
		err := uc.sinkRepo.WriteEventBatch(ctx, events)
		if err == nil {
			return nil
		}
		lastErr = err
		uc.logger.Warn("failed to write batch to sink, retrying...", "attempt", i+1, "error", err)
		select {
		case <-time.After(uc.retryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
