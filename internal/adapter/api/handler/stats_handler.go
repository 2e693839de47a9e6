package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/logsift/logsift/internal/usecase"
)

// StatsHandler serves the aggregation endpoints backed by the sink.
type StatsHandler struct {
	uc     *usecase.QueryStatsUseCase
	logger *slog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(uc *usecase.QueryStatsUseCase, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{uc: uc, logger: logger}
}

// StatusCodes handles GET /stats/status-codes.
func (h *StatsHandler) StatusCodes(w http.ResponseWriter, r *http.Request) {
	counts, err := h.uc.StatusCodeCounts(r.Context())
	if err != nil {
		h.logger.Error("failed to query status code counts", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.respondWithJSON(w, http.StatusOK, counts)
}

// TopEndpoints handles GET /stats/endpoints?limit={n}.
func (h *StatsHandler) TopEndpoints(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}

	hits, err := h.uc.TopEndpoints(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to query top endpoints", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.respondWithJSON(w, http.StatusOK, hits)
}

// Countries handles GET /stats/countries?limit={n}.
func (h *StatsHandler) Countries(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}

	traffic, err := h.uc.TrafficByCountry(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to query traffic by country", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.respondWithJSON(w, http.StatusOK, traffic)
}

// Summary handles GET /stats/summary.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.uc.Summary(r.Context())
	if err != nil {
		h.logger.Error("failed to query traffic summary", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.respondWithJSON(w, http.StatusOK, summary)
}

// limitParam parses the optional limit query parameter. A zero value lets
// the use case apply its default.
func (h *StatsHandler) limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		http.Error(w, "invalid limit parameter", http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}

func (h *StatsHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
