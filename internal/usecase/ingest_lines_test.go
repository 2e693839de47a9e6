package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/logsift/logsift/internal/adapter/anonymize"
	"github.com/logsift/logsift/internal/domain/mocks"
	"github.com/logsift/logsift/pkg/clf"
)

const validLine = `10.0.0.213 - 2185662 [14/Aug/2015:00:05:15 -0800] "GET /Hurricane+Ridge/rss.xml HTTP/1.1" 200 288`

func TestIngestLinesUseCase_IngestLine(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Successful Ingestion", func(t *testing.T) {
		mockRepo := &mocks.MockAccessEventRepository{}
		uc := NewIngestLinesUseCase(mockRepo, nil, nil, nil, logger)

		event, err := uc.IngestLine(context.Background(), "web-01", validLine)

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if event.EventID == "" {
			t.Error("expected event ID to be generated")
		}
		if event.ReceivedAt.IsZero() {
			t.Error("expected ReceivedAt to be set")
		}
		if event.Source != "web-01" {
			t.Errorf("expected source to be propagated, got %q", event.Source)
		}
		if event.Record.Endpoint != "/Hurricane+Ridge/rss.xml" {
			t.Errorf("unexpected endpoint: %q", event.Record.Endpoint)
		}
		if event.Record.ResponseCode != 200 || event.Record.ContentSize != 288 {
			t.Errorf("unexpected numeric fields: %+v", event.Record)
		}
		if len(mockRepo.BufferedEvents) != 1 {
			t.Fatalf("expected 1 event to be buffered, got %d", len(mockRepo.BufferedEvents))
		}
		if mockRepo.BufferedEvents[0].EventID != event.EventID {
			t.Error("buffered event ID mismatch")
		}
	})

	t.Run("Malformed Line", func(t *testing.T) {
		mockRepo := &mocks.MockAccessEventRepository{}
		uc := NewIngestLinesUseCase(mockRepo, nil, nil, nil, logger)

		event, err := uc.IngestLine(context.Background(), "web-01", "garbage that is not a log line")

		if event != nil {
			t.Errorf("expected no event for malformed line, got %+v", event)
		}
		if !errors.Is(err, clf.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
		if len(mockRepo.BufferedEvents) != 0 {
			t.Errorf("malformed lines must not be buffered, got %d", len(mockRepo.BufferedEvents))
		}
	})

	t.Run("Buffer Error", func(t *testing.T) {
		mockRepo := &mocks.MockAccessEventRepository{
			BufferErr: errors.New("buffer is full"),
		}
		uc := NewIngestLinesUseCase(mockRepo, nil, nil, nil, logger)

		_, err := uc.IngestLine(context.Background(), "web-01", validLine)

		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if err.Error() != "buffer is full" {
			t.Errorf("unexpected error message: got %q", err.Error())
		}
	})

	t.Run("Anonymization Applied Before Buffering", func(t *testing.T) {
		mockRepo := &mocks.MockAccessEventRepository{}
		anonymizer := anonymize.New([]string{"userid"}, logger)
		uc := NewIngestLinesUseCase(mockRepo, anonymizer, nil, nil, logger)

		event, err := uc.IngestLine(context.Background(), "web-01", validLine)

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if event.Record.UserID != anonymize.MaskPlaceholder {
			t.Errorf("expected user id to be masked, got %q", event.Record.UserID)
		}
		if !mockRepo.BufferedEvents[0].Anonymized {
			t.Error("expected buffered event to carry the Anonymized flag")
		}
	})

	t.Run("Malformed Total Recorded", func(t *testing.T) {
		counter := &mocks.MockMalformedCounter{}
		uc := NewIngestLinesUseCase(&mocks.MockAccessEventRepository{}, nil, counter, nil, logger)

		uc.RecordMalformed(context.Background(), 4)
		uc.RecordMalformed(context.Background(), 0)

		if counter.Count != 4 {
			t.Errorf("expected durable malformed total 4, got %d", counter.Count)
		}
	})

	t.Run("Counter Failure Does Not Propagate", func(t *testing.T) {
		counter := &mocks.MockMalformedCounter{AddErr: errors.New("counter unavailable")}
		uc := NewIngestLinesUseCase(&mocks.MockAccessEventRepository{}, nil, counter, nil, logger)

		uc.RecordMalformed(context.Background(), 2)

		if counter.Count != 0 {
			t.Errorf("expected no increment on counter failure, got %d", counter.Count)
		}
	})
}
