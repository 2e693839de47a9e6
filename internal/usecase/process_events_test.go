package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/logsift/logsift/internal/domain"
	"github.com/logsift/logsift/internal/domain/mocks"
	"github.com/logsift/logsift/pkg/clf"
)

func TestProcessEventsUseCase_ProcessBatch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testEvents := []domain.AccessEvent{
		{EventID: "1", StreamMessageID: "msg1", Record: clf.Record{Endpoint: "/a", ResponseCode: 200}},
		{EventID: "2", StreamMessageID: "msg2", Record: clf.Record{Endpoint: "/b", ResponseCode: 404}},
	}

	t.Run("Successful Processing", func(t *testing.T) {
		bufferRepo := &mocks.MockAccessEventRepository{ReadBatchResult: testEvents}
		sinkRepo := &mocks.MockAccessEventRepository{}
		uc := NewProcessEventsUseCase(bufferRepo, sinkRepo, nil, logger, "group", "consumer", 3, 1*time.Millisecond)

		count, err := uc.ProcessBatch(context.Background())

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != len(testEvents) {
			t.Errorf("expected processed count to be %d, got %d", len(testEvents), count)
		}
		if len(sinkRepo.WrittenEvents) != 2 {
			t.Errorf("expected 2 events written to sink, got %d", len(sinkRepo.WrittenEvents))
		}
		if len(bufferRepo.AckedMessageIDs) != 2 {
			t.Errorf("expected 2 messages to be acked, got %d", len(bufferRepo.AckedMessageIDs))
		}
		if len(bufferRepo.DLQEvents) != 0 {
			t.Errorf("expected 0 events in DLQ, got %d", len(bufferRepo.DLQEvents))
		}
	})

	t.Run("Sink Failure with Retry and DLQ", func(t *testing.T) {
		bufferRepo := &mocks.MockAccessEventRepository{ReadBatchResult: testEvents}
		sinkRepo := &mocks.MockAccessEventRepository{WriteErr: errors.New("database is down")}
		uc := NewProcessEventsUseCase(bufferRepo, sinkRepo, nil, logger, "group", "consumer", 2, 1*time.Millisecond)

		count, err := uc.ProcessBatch(context.Background())

		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if count != 0 {
			t.Errorf("expected processed count to be 0, got %d", count)
		}
		if len(sinkRepo.WrittenEvents) != 0 {
			t.Errorf("expected 0 events written to sink, got %d", len(sinkRepo.WrittenEvents))
		}
		if len(bufferRepo.DLQEvents) != 2 {
			t.Errorf("expected 2 events moved to DLQ, got %d", len(bufferRepo.DLQEvents))
		}
		if len(bufferRepo.AckedMessageIDs) != 2 {
			t.Errorf("expected DLQ'd batch to be acked, got %d acks", len(bufferRepo.AckedMessageIDs))
		}
	})

	t.Run("DLQ Failure Leaves Batch Unacked", func(t *testing.T) {
		bufferRepo := &mocks.MockAccessEventRepository{
			ReadBatchResult: testEvents,
			DLQErr:          errors.New("redis gone too"),
		}
		sinkRepo := &mocks.MockAccessEventRepository{WriteErr: errors.New("database is down")}
		uc := NewProcessEventsUseCase(bufferRepo, sinkRepo, nil, logger, "group", "consumer", 1, 1*time.Millisecond)

		_, err := uc.ProcessBatch(context.Background())

		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if len(bufferRepo.AckedMessageIDs) != 0 {
			t.Errorf("batch must stay unacked for redelivery, got %d acks", len(bufferRepo.AckedMessageIDs))
		}
	})

	t.Run("Empty Batch", func(t *testing.T) {
		bufferRepo := &mocks.MockAccessEventRepository{}
		sinkRepo := &mocks.MockAccessEventRepository{}
		uc := NewProcessEventsUseCase(bufferRepo, sinkRepo, nil, logger, "group", "consumer", 3, 1*time.Millisecond)

		count, err := uc.ProcessBatch(context.Background())

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != 0 {
			t.Errorf("expected 0, got %d", count)
		}
	})

	t.Run("Read Error", func(t *testing.T) {
		bufferRepo := &mocks.MockAccessEventRepository{ReadErr: errors.New("stream unavailable")}
		sinkRepo := &mocks.MockAccessEventRepository{}
		uc := NewProcessEventsUseCase(bufferRepo, sinkRepo, nil, logger, "group", "consumer", 3, 1*time.Millisecond)

		if _, err := uc.ProcessBatch(context.Background()); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}
