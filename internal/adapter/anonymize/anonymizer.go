package anonymize

import (
	"log/slog"
	"strings"

	"github.com/logsift/logsift/internal/domain"
)

// MaskPlaceholder replaces anonymized field values.
const MaskPlaceholder = "[MASKED]"

// Field names accepted in the anonymizer configuration.
const (
	FieldUserID    = "userid"
	FieldIPAddress = "ipaddress"
	FieldIdentd    = "identd"
)

// Anonymizer masks operator-configured identity fields on parsed access
// events before they enter the durable buffer.
type Anonymizer struct {
	fields map[string]struct{}
	logger *slog.Logger
}

// New creates an Anonymizer for the given field names. Unknown names are
// logged and ignored so a config typo does not take the ingest path down.
func New(fields []string, logger *slog.Logger) *Anonymizer {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		name := strings.ToLower(strings.TrimSpace(field))
		if name == "" {
			continue
		}
		switch name {
		case FieldUserID, FieldIPAddress, FieldIdentd:
			fieldSet[name] = struct{}{}
		default:
			logger.Warn("ignoring unknown anonymization field", "field", name)
		}
	}
	return &Anonymizer{
		fields: fieldSet,
		logger: logger,
	}
}

// Apply masks the configured fields in place and flags the event when at
// least one field was changed.
func (a *Anonymizer) Apply(event *domain.AccessEvent) {
	if len(a.fields) == 0 {
		return
	}

	masked := false
	if _, ok := a.fields[FieldUserID]; ok && event.Record.UserID != "-" {
		event.Record.UserID = MaskPlaceholder
		masked = true
	}
	if _, ok := a.fields[FieldIPAddress]; ok {
		event.Record.IPAddress = MaskPlaceholder
		masked = true
	}
	if _, ok := a.fields[FieldIdentd]; ok && event.Record.ClientIdentd != "-" {
		event.Record.ClientIdentd = MaskPlaceholder
		masked = true
	}

	if masked {
		event.Anonymized = true
	}
}
