package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/logsift/logsift/internal/adapter/anonymize"
	"github.com/logsift/logsift/internal/adapter/metrics"
	"github.com/logsift/logsift/internal/domain"
	"github.com/logsift/logsift/pkg/clf"
)

// IngestLinesUseCase turns raw access-log lines into buffered events. A line
// that does not parse is counted and reported, never fatal: the caller keeps
// going and the malformed total stays visible to operators.
type IngestLinesUseCase struct {
	repo       domain.AccessEventRepository
	anonymizer *anonymize.Anonymizer
	malformed  domain.MalformedCounter
	metrics    *metrics.PipelineMetrics
	logger     *slog.Logger
}

// NewIngestLinesUseCase creates a new IngestLinesUseCase. The malformed
// counter is optional; pass nil to skip the durable total.
func NewIngestLinesUseCase(repo domain.AccessEventRepository, anonymizer *anonymize.Anonymizer, malformed domain.MalformedCounter, m *metrics.PipelineMetrics, logger *slog.Logger) *IngestLinesUseCase {
	return &IngestLinesUseCase{
		repo:       repo,
		anonymizer: anonymizer,
		malformed:  malformed,
		metrics:    m,
		logger:     logger,
	}
}

// IngestLine parses one raw line and buffers the resulting event.
//
// A non-matching line returns the parse error (errors.Is ErrNoMatch) so the
// caller can count it; a buffering failure returns the repository error.
// On success the buffered event is returned.
func (uc *IngestLinesUseCase) IngestLine(ctx context.Context, source, line string) (*domain.AccessEvent, error) {
	if uc.metrics != nil {
		uc.metrics.BytesTotal.Add(float64(len(line)))
	}

	record, err := clf.Parse(line)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.LinesTotal.WithLabelValues("malformed").Inc()
		}
		uc.logger.Debug("discarding malformed line", "source", source, "error", err)
		return nil, err
	}

	event := &domain.AccessEvent{
		EventID:    uuid.NewString(),
		ReceivedAt: time.Now().UTC(),
		Source:     source,
		Record:     record,
		RawLine:    line,
	}

	if uc.anonymizer != nil {
		uc.anonymizer.Apply(event)
	}

	if err := uc.repo.BufferEvent(ctx, *event); err != nil {
		if uc.metrics != nil {
			uc.metrics.LinesTotal.WithLabelValues("error_buffer").Inc()
		}
		uc.logger.Error("failed to buffer access event", "error", err, "event_id", event.EventID)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LinesTotal.WithLabelValues("parsed").Inc()
	}
	return event, nil
}

// RecordMalformed adds count to the durable malformed-line total, typically
// once per request with that request's count. A failed increment is logged
// and swallowed: an undercount beats failing a request that was otherwise
// handled.
func (uc *IngestLinesUseCase) RecordMalformed(ctx context.Context, count int) {
	if uc.malformed == nil || count <= 0 {
		return
	}
	if err := uc.malformed.Add(ctx, int64(count)); err != nil {
		uc.logger.Warn("failed to record malformed line total", "count", count, "error", err)
	}
}
