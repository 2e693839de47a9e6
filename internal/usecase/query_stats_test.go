package usecase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/logsift/logsift/internal/domain"
	"github.com/logsift/logsift/internal/domain/mocks"
)

// memCache is an in-memory domain.StatsCache for testing.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	payload, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(payload, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = payload
	return nil
}

func TestQueryStatsUseCase_StatusCodeCounts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	counts := []domain.StatusCodeCount{
		{Code: 200, Description: "OK", Hits: 98},
		{Code: 404, Description: "Not Found", Hits: 5},
	}

	t.Run("Cache Miss Then Hit", func(t *testing.T) {
		repo := &mocks.MockStatsRepository{StatusCounts: counts}
		cache := newMemCache()
		uc := NewQueryStatsUseCase(repo, cache, nil, nil, logger, time.Minute)

		first, err := uc.StatusCodeCounts(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(first) != 2 || first[0].Code != 200 {
			t.Errorf("unexpected first result: %+v", first)
		}
		if repo.StatusCalls != 1 {
			t.Fatalf("expected 1 repo call, got %d", repo.StatusCalls)
		}

		second, err := uc.StatusCodeCounts(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.StatusCalls != 1 {
			t.Errorf("expected cached result to skip the repo, got %d calls", repo.StatusCalls)
		}
		if len(second) != 2 || second[1].Description != "Not Found" {
			t.Errorf("unexpected cached result: %+v", second)
		}
	})

	t.Run("Cache Error Falls Back To Repo", func(t *testing.T) {
		repo := &mocks.MockStatsRepository{StatusCounts: counts}
		cache := newMemCache()
		cache.getErr = context.DeadlineExceeded
		uc := NewQueryStatsUseCase(repo, cache, nil, nil, logger, time.Minute)

		result, err := uc.StatusCodeCounts(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result) != 2 {
			t.Errorf("unexpected result: %+v", result)
		}
		if repo.StatusCalls != 1 {
			t.Errorf("expected repo to be queried, got %d calls", repo.StatusCalls)
		}
	})

	t.Run("No Cache Configured", func(t *testing.T) {
		repo := &mocks.MockStatsRepository{StatusCounts: counts}
		uc := NewQueryStatsUseCase(repo, nil, nil, nil, logger, time.Minute)

		if _, err := uc.StatusCodeCounts(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := uc.StatusCodeCounts(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.StatusCalls != 2 {
			t.Errorf("expected every call to hit the repo without a cache, got %d", repo.StatusCalls)
		}
	})
}

func TestQueryStatsUseCase_LimitsAndKeys(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Endpoint Limit Defaults", func(t *testing.T) {
		repo := &mocks.MockStatsRepository{Endpoints: []domain.EndpointHits{{Endpoint: "/a", Hits: 3}}}
		uc := NewQueryStatsUseCase(repo, nil, nil, nil, logger, time.Minute)

		if _, err := uc.TopEndpoints(context.Background(), 0); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.EndpointCalls != 1 {
			t.Errorf("expected 1 repo call, got %d", repo.EndpointCalls)
		}
	})

	t.Run("Different Limits Cached Separately", func(t *testing.T) {
		repo := &mocks.MockStatsRepository{Countries: []domain.CountryTraffic{{Country: "US", Hits: 7, Bytes: 1024}}}
		cache := newMemCache()
		uc := NewQueryStatsUseCase(repo, cache, nil, nil, logger, time.Minute)

		if _, err := uc.TrafficByCountry(context.Background(), 5); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := uc.TrafficByCountry(context.Background(), 10); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.CountryCalls != 2 {
			t.Errorf("expected distinct limits to miss separately, got %d calls", repo.CountryCalls)
		}
	})

	t.Run("Summary Includes Malformed Total", func(t *testing.T) {
		repo := &mocks.MockStatsRepository{SummaryResult: &domain.TrafficSummary{Events: 100, DistinctIPs: 42, TotalBytes: 4096}}
		counter := &mocks.MockMalformedCounter{Count: 7}
		uc := NewQueryStatsUseCase(repo, nil, counter, nil, logger, time.Minute)

		summary, err := uc.Summary(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if summary.MalformedTotal != 7 {
			t.Errorf("expected malformed total 7, got %d", summary.MalformedTotal)
		}
		if summary.Events != 100 {
			t.Errorf("sink fields must be untouched, got %+v", summary)
		}
	})

	t.Run("Counter Error Leaves Malformed Total Zero", func(t *testing.T) {
		repo := &mocks.MockStatsRepository{SummaryResult: &domain.TrafficSummary{Events: 1}}
		counter := &mocks.MockMalformedCounter{Count: 7, TotalErr: context.DeadlineExceeded}
		uc := NewQueryStatsUseCase(repo, nil, counter, nil, logger, time.Minute)

		summary, err := uc.Summary(context.Background())
		if err != nil {
			t.Fatalf("counter errors must not fail the summary, got %v", err)
		}
		if summary.MalformedTotal != 0 {
			t.Errorf("expected zero malformed total on counter error, got %d", summary.MalformedTotal)
		}
	})

	t.Run("Summary Round Trip", func(t *testing.T) {
		repo := &mocks.MockStatsRepository{SummaryResult: &domain.TrafficSummary{Events: 100, DistinctIPs: 42, TotalBytes: 4096}}
		cache := newMemCache()
		uc := NewQueryStatsUseCase(repo, cache, nil, nil, logger, time.Minute)

		first, err := uc.Summary(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		second, err := uc.Summary(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.SummaryCalls != 1 {
			t.Errorf("expected second call to be served from cache, got %d repo calls", repo.SummaryCalls)
		}
		if *first != *second {
			t.Errorf("summary mismatch: %+v vs %+v", first, second)
		}
	})
}
