package wal

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/logsift/logsift/internal/domain"
	"github.com/logsift/logsift/pkg/clf"
)

func setupTestWAL(t *testing.T, maxSegmentSize, maxTotalSize int64) *WALRepository {
	t.Helper()
	dir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := NewWALRepository(dir, maxSegmentSize, maxTotalSize, logger)
	if err != nil {
		t.Fatalf("failed to create WALRepository: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	return w
}

func accessEvent(endpoint string) domain.AccessEvent {
	return domain.AccessEvent{
		EventID: uuid.NewString(),
		Record: clf.Record{
			IPAddress:    "10.0.0.1",
			ClientIdentd: "-",
			UserID:       "-",
			Datetime:     "14/Aug/2015:00:05:15 -0800",
			Method:       "GET",
			Endpoint:     endpoint,
			Protocol:     "HTTP/1.1",
			ResponseCode: 200,
			ContentSize:  512,
		},
	}
}

func TestWAL_WriteAndReplay(t *testing.T) {
	w := setupTestWAL(t, 1024, 10*1024)

	events := []domain.AccessEvent{
		accessEvent("/index.html"),
		accessEvent("/rss.xml"),
		accessEvent("/images/logo.png"),
	}

	for _, event := range events {
		if err := w.Write(context.Background(), event); err != nil {
			t.Fatalf("failed to write event: %v", err)
		}
	}
	w.Close()

	// Re-open the WAL to simulate a restart.
	w2, err := NewWALRepository(w.dir, 1024, 10*1024, w.logger)
	if err != nil {
		t.Fatalf("failed to re-open WAL: %v", err)
	}
	defer w2.Close()

	var replayed []domain.AccessEvent
	handler := func(event domain.AccessEvent) error {
		replayed = append(replayed, event)
		return nil
	}

	if err := w2.Replay(context.Background(), handler); err != nil {
		t.Fatalf("failed to replay events: %v", err)
	}

	if len(replayed) != len(events) {
		t.Fatalf("expected %d replayed events, got %d", len(events), len(replayed))
	}

	for i, event := range events {
		if replayed[i].EventID != event.EventID || replayed[i].Record != event.Record {
			t.Errorf("replayed event mismatch at index %d: got %+v, want %+v", i, replayed[i], event)
		}
	}
}

func TestWAL_SegmentRotation(t *testing.T) {
	// Tiny segments force a rotation per write.
	w := setupTestWAL(t, 64, 10*1024)

	for i := 0; i < 3; i++ {
		if err := w.Write(context.Background(), accessEvent("/rotate")); err != nil {
			t.Fatalf("failed to write event %d: %v", i, err)
		}
	}

	segments, err := w.getSortedSegments()
	if err != nil {
		t.Fatalf("failed to list segments: %v", err)
	}
	if len(segments) < 3 {
		t.Errorf("expected at least 3 segments after rotation, got %d", len(segments))
	}
}

func TestWAL_MaxDiskSizeEnforced(t *testing.T) {
	w := setupTestWAL(t, 1024, 300)

	var lastErr error
	for i := 0; i < 10; i++ {
		if err := w.Write(context.Background(), accessEvent("/too-big")); err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == nil {
		t.Fatal("expected a write to fail once the disk budget is exhausted")
	}
}

func TestWAL_TruncateClearsSegments(t *testing.T) {
	w := setupTestWAL(t, 1024, 10*1024)

	if err := w.Write(context.Background(), accessEvent("/gone")); err != nil {
		t.Fatalf("failed to write event: %v", err)
	}

	if err := w.Truncate(context.Background()); err != nil {
		t.Fatalf("failed to truncate: %v", err)
	}

	var replayed int
	handler := func(event domain.AccessEvent) error {
		replayed++
		return nil
	}
	if err := w.Replay(context.Background(), handler); err != nil {
		t.Fatalf("failed to replay after truncate: %v", err)
	}
	if replayed != 0 {
		t.Errorf("expected no events after truncate, got %d", replayed)
	}
}
