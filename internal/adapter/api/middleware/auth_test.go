package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubKeyRepo struct {
	validKey string
	err      error
}

func (s *stubKeyRepo) IsValid(ctx context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return key == s.validKey, nil
}

func TestAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	tests := []struct {
		name           string
		key            string
		repo           *stubKeyRepo
		expectedStatus int
	}{
		{
			name:           "Valid Key",
			key:            "supersecretkey",
			repo:           &stubKeyRepo{validKey: "supersecretkey"},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "Missing Key",
			key:            "",
			repo:           &stubKeyRepo{validKey: "supersecretkey"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Unknown Key",
			key:            "wrong",
			repo:           &stubKeyRepo{validKey: "supersecretkey"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Validation Failure",
			key:            "supersecretkey",
			repo:           &stubKeyRepo{err: errors.New("key store unreachable")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Auth(tt.repo, logger)(okHandler)

			req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}
