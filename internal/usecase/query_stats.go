package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/logsift/logsift/internal/adapter/metrics"
	"github.com/logsift/logsift/internal/domain"
)

const (
	cacheKeyStatusCodes = "stats:status_codes"
	cacheKeyEndpoints   = "stats:endpoints"
	cacheKeyCountries   = "stats:countries"
	cacheKeySummary     = "stats:summary"
)

// QueryStatsUseCase serves the exploratory aggregations, fronting the sink
// with a short-lived cache so dashboards can poll freely.
type QueryStatsUseCase struct {
	repo      domain.StatsRepository
	cache     domain.StatsCache
	malformed domain.MalformedCounter
	metrics   *metrics.PipelineMetrics
	logger    *slog.Logger
	ttl       time.Duration
}

// NewQueryStatsUseCase creates a new QueryStatsUseCase. The cache and the
// malformed counter are optional; pass nil to query the sink directly and
// report a zero malformed total.
func NewQueryStatsUseCase(repo domain.StatsRepository, cache domain.StatsCache, malformed domain.MalformedCounter, m *metrics.PipelineMetrics, logger *slog.Logger, ttl time.Duration) *QueryStatsUseCase {
	return &QueryStatsUseCase{
		repo:      repo,
		cache:     cache,
		malformed: malformed,
		metrics:   m,
		logger:    logger,
		ttl:       ttl,
	}
}

// StatusCodeCounts returns hits per response code with descriptions.
func (uc *QueryStatsUseCase) StatusCodeCounts(ctx context.Context) ([]domain.StatusCodeCount, error) {
	var counts []domain.StatusCodeCount
	if uc.cached(ctx, cacheKeyStatusCodes, &counts) {
		return counts, nil
	}

	counts, err := uc.repo.StatusCodeCounts(ctx)
	if err != nil {
		return nil, err
	}
	uc.store(ctx, cacheKeyStatusCodes, counts)
	return counts, nil
}

// TopEndpoints returns the most requested endpoints.
func (uc *QueryStatsUseCase) TopEndpoints(ctx context.Context, limit int) ([]domain.EndpointHits, error) {
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("%s:%d", cacheKeyEndpoints, limit)
	var hits []domain.EndpointHits
	if uc.cached(ctx, key, &hits) {
		return hits, nil
	}

	hits, err := uc.repo.TopEndpoints(ctx, limit)
	if err != nil {
		return nil, err
	}
	uc.store(ctx, key, hits)
	return hits, nil
}

// TrafficByCountry returns hit and byte counts per country.
func (uc *QueryStatsUseCase) TrafficByCountry(ctx context.Context, limit int) ([]domain.CountryTraffic, error) {
	if limit <= 0 {
		limit = 25
	}

	key := fmt.Sprintf("%s:%d", cacheKeyCountries, limit)
	var traffic []domain.CountryTraffic
	if uc.cached(ctx, key, &traffic) {
		return traffic, nil
	}

	traffic, err := uc.repo.TrafficByCountry(ctx, limit)
	if err != nil {
		return nil, err
	}
	uc.store(ctx, key, traffic)
	return traffic, nil
}

// Summary returns the overall shape of the data set. The malformed total is
// folded in from the ingest counter, since those lines never reach the sink.
func (uc *QueryStatsUseCase) Summary(ctx context.Context) (*domain.TrafficSummary, error) {
	var summary domain.TrafficSummary
	if uc.cached(ctx, cacheKeySummary, &summary) {
		return &summary, nil
	}

	result, err := uc.repo.Summary(ctx)
	if err != nil {
		return nil, err
	}
	if uc.malformed != nil {
		total, err := uc.malformed.Total(ctx)
		if err != nil {
			uc.logger.Warn("failed to read malformed line total", "error", err)
		} else {
			result.MalformedTotal = total
		}
	}
	uc.store(ctx, cacheKeySummary, result)
	return result, nil
}

// cached reports whether key was served from the cache. Cache errors are
// logged and treated as misses; the sink stays authoritative.
func (uc *QueryStatsUseCase) cached(ctx context.Context, key string, dest any) bool {
	if uc.cache == nil {
		return false
	}
	found, err := uc.cache.Get(ctx, key, dest)
	if err != nil {
		uc.logger.Warn("stats cache read failed", "key", key, "error", err)
		return false
	}
	if uc.metrics != nil {
		if found {
			uc.metrics.StatsCacheHits.Inc()
		} else {
			uc.metrics.StatsCacheMisses.Inc()
		}
	}
	return found
}

func (uc *QueryStatsUseCase) store(ctx context.Context, key string, value any) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, value, uc.ttl); err != nil {
		uc.logger.Warn("stats cache write failed", "key", key, "error", err)
	}
}
