package middleware

import (
	"log/slog"
	"net/http"

	"github.com/logsift/logsift/internal/domain"
)

// APIKeyHeader carries the caller's key on every ingest request.
const APIKeyHeader = "X-API-Key"

// Auth gates a handler behind API key validation. The repository caches
// lookups, so checking the header on every request stays cheap even on the
// ingest hot path. A missing or unknown key gets 401; a validation failure
// (the key store being unreachable) gets 500 rather than letting lines in.
func Auth(repo domain.APIKeyRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				logger.Warn("rejecting request without API key", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: missing API key", http.StatusUnauthorized)
				return
			}

			valid, err := repo.IsValid(r.Context(), key)
			if err != nil {
				logger.Error("API key validation failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if !valid {
				logger.Warn("rejecting request with unknown API key", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
