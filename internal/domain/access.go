package domain

import (
	"time"

	"github.com/logsift/logsift/pkg/clf"
)

// AccessEvent is the canonical envelope around one parsed access-log line as
// it moves through the pipeline.
type AccessEvent struct {
	EventID    string     `json:"event_id"`
	ReceivedAt time.Time  `json:"received_at"`
	Source     string     `json:"source,omitempty"`
	Record     clf.Record `json:"record"`
	Anonymized bool       `json:"anonymized,omitempty"`

	// RawLine is the original unparsed line. It is kept for operator
	// inspection but never marshalled to the buffer or the sink.
	RawLine string `json:"-"`

	// StreamMessageID is the buffer-assigned message ID, set when the event
	// is read back out of the stream. Transport detail, not persisted.
	StreamMessageID string `json:"-"`
}

// IngestSummary reports the outcome of one ingest request. Malformed lines
// are excluded from the structured pipeline but stay visible to callers so
// data quality can be assessed.
type IngestSummary struct {
	Accepted  int `json:"accepted"`
	Malformed int `json:"malformed"`
}
