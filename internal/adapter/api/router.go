package api

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/logsift/logsift/internal/adapter/api/handler"
	"github.com/logsift/logsift/internal/adapter/api/middleware"
	"github.com/logsift/logsift/internal/domain"
	"github.com/logsift/logsift/internal/pkg/config"
	"github.com/logsift/logsift/internal/usecase"
)

// NewRouter creates and configures the main HTTP router for the ingest service.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	apiKeyRepo domain.APIKeyRepository,
	ingestUseCase *usecase.IngestLinesUseCase,
	statsUseCase *usecase.QueryStatsUseCase,
	sseBroker *handler.SSEBroker,
) http.Handler {
	mux := http.NewServeMux()

	ingestHandler := handler.NewIngestHandler(ingestUseCase, logger, sseBroker, cfg.MaxBodySize)
	statsHandler := handler.NewStatsHandler(statsUseCase, logger)

	authMiddleware := middleware.Auth(apiKeyRepo, logger)
	limiter := rate.NewLimiter(rate.Limit(cfg.IngestRateLimit), cfg.IngestRateBurst)
	rateLimitMiddleware := middleware.RateLimit(limiter, logger)

	mux.Handle("POST /ingest", authMiddleware(rateLimitMiddleware(ingestHandler)))

	mux.HandleFunc("GET /stats/status-codes", statsHandler.StatusCodes)
	mux.HandleFunc("GET /stats/endpoints", statsHandler.TopEndpoints)
	mux.HandleFunc("GET /stats/countries", statsHandler.Countries)
	mux.HandleFunc("GET /stats/summary", statsHandler.Summary)

	mux.Handle("GET /events", sseBroker)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}
