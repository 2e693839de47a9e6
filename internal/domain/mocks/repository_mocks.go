package mocks

import (
	"context"
	"sync"

	"github.com/logsift/logsift/internal/domain"
)

// MockAccessEventRepository is a mock implementation of
// domain.AccessEventRepository for testing.
type MockAccessEventRepository struct {
	mu              sync.Mutex
	BufferedEvents  []domain.AccessEvent
	WrittenEvents   []domain.AccessEvent
	AckedMessageIDs []string
	DLQEvents       []domain.AccessEvent
	ReadBatchResult []domain.AccessEvent
	BufferErr       error
	ReadErr         error
	WriteErr        error
	AckErr          error
	DLQErr          error
}

func (m *MockAccessEventRepository) BufferEvent(ctx context.Context, event domain.AccessEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BufferErr != nil {
		return m.BufferErr
	}
	m.BufferedEvents = append(m.BufferedEvents, event)
	return nil
}

func (m *MockAccessEventRepository) ReadEventBatch(ctx context.Context, group, consumer string, count int) ([]domain.AccessEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.ReadBatchResult, nil
}

func (m *MockAccessEventRepository) WriteEventBatch(ctx context.Context, events []domain.AccessEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.WrittenEvents = append(m.WrittenEvents, events...)
	return nil
}

func (m *MockAccessEventRepository) AcknowledgeEvents(ctx context.Context, group string, messageIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedMessageIDs = append(m.AckedMessageIDs, messageIDs...)
	return nil
}

func (m *MockAccessEventRepository) MoveToDLQ(ctx context.Context, events []domain.AccessEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DLQErr != nil {
		return m.DLQErr
	}
	m.DLQEvents = append(m.DLQEvents, events...)
	return nil
}

// MockMalformedCounter is a mock implementation of domain.MalformedCounter.
type MockMalformedCounter struct {
	mu       sync.Mutex
	Count    int64
	AddErr   error
	TotalErr error
}

func (m *MockMalformedCounter) Add(ctx context.Context, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Count += delta
	return nil
}

func (m *MockMalformedCounter) Total(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TotalErr != nil {
		return 0, m.TotalErr
	}
	return m.Count, nil
}

// MockStatsRepository is a mock implementation of domain.StatsRepository.
type MockStatsRepository struct {
	StatusCounts  []domain.StatusCodeCount
	Endpoints     []domain.EndpointHits
	Countries     []domain.CountryTraffic
	SummaryResult *domain.TrafficSummary
	Err           error
	StatusCalls   int
	EndpointCalls int
	CountryCalls  int
	SummaryCalls  int
}

func (m *MockStatsRepository) StatusCodeCounts(ctx context.Context) ([]domain.StatusCodeCount, error) {
	m.StatusCalls++
	return m.StatusCounts, m.Err
}

func (m *MockStatsRepository) TopEndpoints(ctx context.Context, limit int) ([]domain.EndpointHits, error) {
	m.EndpointCalls++
	return m.Endpoints, m.Err
}

func (m *MockStatsRepository) TrafficByCountry(ctx context.Context, limit int) ([]domain.CountryTraffic, error) {
	m.CountryCalls++
	return m.Countries, m.Err
}

func (m *MockStatsRepository) Summary(ctx context.Context) (*domain.TrafficSummary, error) {
	m.SummaryCalls++
	return m.SummaryResult, m.Err
}
