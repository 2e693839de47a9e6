package handler

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/logsift/logsift/internal/domain"
	"github.com/logsift/logsift/internal/usecase"
	"github.com/logsift/logsift/pkg/clf"
)

// IngestHandler handles HTTP requests carrying raw access-log lines.
type IngestHandler struct {
	useCase     *usecase.IngestLinesUseCase
	logger      *slog.Logger
	sseBroker   *SSEBroker
	maxBodySize int64
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(uc *usecase.IngestLinesUseCase, logger *slog.Logger, sseBroker *SSEBroker, maxBodySize int64) *IngestHandler {
	return &IngestHandler{
		useCase:     uc,
		logger:      logger,
		sseBroker:   sseBroker,
		maxBodySize: maxBodySize,
	}
}

// ServeHTTP processes incoming log uploads: text/plain, one access-log line
// per row. The response reports how many lines parsed and how many were
// malformed; malformed lines never fail the request.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if mediaType, _, _ := strings.Cut(contentType, ";"); strings.TrimSpace(mediaType) != "text/plain" && mediaType != "" {
		http.Error(w, "Unsupported Content-Type", http.StatusUnsupportedMediaType)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	source := r.Header.Get("X-Log-Source")

	summary, err := h.ingestLines(r, source)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Error("failed to process ingest request", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if h.sseBroker != nil && summary.Accepted > 0 {
		h.sseBroker.ReportEvents(summary.Accepted)
	}
	h.useCase.RecordMalformed(r.Context(), summary.Malformed)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		h.logger.Error("failed to encode ingest summary", "error", err)
	}
}

func (h *IngestHandler) ingestLines(r *http.Request, source string) (*domain.IngestSummary, error) {
	summary := &domain.IngestSummary{}

	scanner := bufio.NewScanner(r.Body)
	// Access-log lines can carry very long request paths.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}

		_, err := h.useCase.IngestLine(r.Context(), source, line)
		if err != nil {
			if errors.Is(err, clf.ErrNoMatch) {
				summary.Malformed++
				continue
			}
			// Buffering failure: the remaining lines would fail the same
			// way, so surface the error to the client.
			return nil, err
		}
		summary.Accepted++
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}
