package domain

import (
	"context"
	"io"
	"time"
)

// AccessEventRepository defines buffering and sinking of parsed access events.
// It abstracts the concrete backends (Redis Streams for the buffer,
// PostgreSQL for the sink).
type AccessEventRepository interface {
	// BufferEvent appends a single event to the durable buffer.
	BufferEvent(ctx context.Context, event AccessEvent) error

	// ReadEventBatch reads a batch of events from the buffer for a consumer.
	ReadEventBatch(ctx context.Context, group, consumer string, count int) ([]AccessEvent, error)

	// WriteEventBatch writes a batch of events to the structured sink.
	WriteEventBatch(ctx context.Context, events []AccessEvent) error

	// AcknowledgeEvents marks buffered messages as processed.
	AcknowledgeEvents(ctx context.Context, group string, messageIDs ...string) error

	// MoveToDLQ parks a batch that repeatedly failed to sink.
	MoveToDLQ(ctx context.Context, events []AccessEvent) error
}

// APIKeyRepository validates ingest API keys. Implementations are expected
// to cache lookups to keep the hot path off the database.
type APIKeyRepository interface {
	IsValid(ctx context.Context, key string) (bool, error)
}

// WALRepository is the local write-ahead failover for the buffer.
type WALRepository interface {
	// Write appends an event to the local WAL.
	Write(ctx context.Context, event AccessEvent) error

	// Replay feeds WAL contents to the handler, which re-buffers each event.
	Replay(ctx context.Context, handler func(event AccessEvent) error) error

	// Truncate removes segments that have been replayed.
	Truncate(ctx context.Context) error
}

// StatsRepository runs the exploratory aggregations against the sink.
type StatsRepository interface {
	StatusCodeCounts(ctx context.Context) ([]StatusCodeCount, error)
	TopEndpoints(ctx context.Context, limit int) ([]EndpointHits, error)
	TrafficByCountry(ctx context.Context, limit int) ([]CountryTraffic, error)
	Summary(ctx context.Context) (*TrafficSummary, error)
}

// StatsCache caches aggregation results between refreshes.
type StatsCache interface {
	// Get unmarshals the cached value for key into dest, reporting whether
	// the key was present.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores value under key for at most ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// MalformedCounter tracks the running total of malformed lines seen by the
// ingest path. Malformed lines never reach the sink, so this counter is the
// only durable record of them; it must survive process restarts.
type MalformedCounter interface {
	// Add increments the total by delta.
	Add(ctx context.Context, delta int64) error

	// Total returns the current total. A counter that was never incremented
	// reports zero, not an error.
	Total(ctx context.Context) (int64, error)
}

// LookupRepository loads the auxiliary delimited mapping tables used by the
// stats joins. Both inputs are plain key<TAB>value files.
type LookupRepository interface {
	// LoadResponseCodes loads code→description rows, returning the count.
	LoadResponseCodes(ctx context.Context, r io.Reader) (int, error)

	// LoadIPCountries loads ipaddress→country rows, returning the count.
	LoadIPCountries(ctx context.Context, r io.Reader) (int, error)
}

// BufferAdminRepository exposes introspection and maintenance operations on
// the buffer stream and its consumer groups.
type BufferAdminRepository interface {
	GetGroupInfo(ctx context.Context, stream string) ([]BufferGroupInfo, error)
	GetConsumerInfo(ctx context.Context, stream, group string) ([]BufferConsumerInfo, error)
	GetPendingSummary(ctx context.Context, stream, group string) (*PendingSummary, error)
	GetPendingMessages(ctx context.Context, stream, group, consumer, startID string, count int64) ([]PendingMessage, error)
	ClaimMessages(ctx context.Context, stream, group, consumer string, minIdle time.Duration, messageIDs []string) ([]AccessEvent, error)
	AcknowledgeMessages(ctx context.Context, stream, group string, messageIDs ...string) (int64, error)
	TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error)
}
