package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"
	"github.com/logsift/logsift/internal/domain"
)

var errNotImplemented = errors.New("method not implemented for this repository type")

// AccessEventRepository implements the sink part of the
// domain.AccessEventRepository interface for PostgreSQL.
type AccessEventRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAccessEventRepository creates a new PostgreSQL access event repository.
func NewAccessEventRepository(db *sql.DB, logger *slog.Logger) *AccessEventRepository {
	return &AccessEventRepository{db: db, logger: logger}
}

// WriteEventBatch writes a batch of events to PostgreSQL using the COPY
// protocol. Rows are staged into a temporary table and merged with an
// ON CONFLICT clause keyed on event_id, so re-delivered batches are
// idempotent.
func (r *AccessEventRepository) WriteEventBatch(ctx context.Context, events []domain.AccessEvent) error {
	if len(events) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	tempTableName := "access_events_temp_import"
	_, err = txn.ExecContext(ctx, `CREATE TEMP TABLE `+tempTableName+` (LIKE access_events INCLUDING DEFAULTS) ON COMMIT DROP;`)
	if err != nil {
		return err
	}

	stmt, err := txn.Prepare(pq.CopyIn(tempTableName,
		"event_id", "received_at", "source", "ipaddress", "client_identd", "user_id",
		"datetime", "method", "endpoint", "protocol", "response_code", "content_size", "anonymized"))
	if err != nil {
		return err
	}

	for _, event := range events {
		rec := event.Record
		_, err = stmt.ExecContext(ctx, event.EventID, event.ReceivedAt, event.Source,
			rec.IPAddress, rec.ClientIdentd, rec.UserID, rec.Datetime,
			rec.Method, rec.Endpoint, rec.Protocol, rec.ResponseCode, rec.ContentSize,
			event.Anonymized)
		if err != nil {
			_ = stmt.Close()
			return err
		}
	}

	if err := stmt.Close(); err != nil {
		return err
	}

	upsertQuery := `
		INSERT INTO access_events (event_id, received_at, source, ipaddress, client_identd, user_id,
			datetime, method, endpoint, protocol, response_code, content_size, anonymized)
		SELECT event_id, received_at, source, ipaddress, client_identd, user_id,
			datetime, method, endpoint, protocol, response_code, content_size, anonymized
		FROM ` + tempTableName + `
		ON CONFLICT (event_id) DO UPDATE SET
			received_at = EXCLUDED.received_at,
			source = EXCLUDED.source,
			ipaddress = EXCLUDED.ipaddress,
			client_identd = EXCLUDED.client_identd,
			user_id = EXCLUDED.user_id,
			datetime = EXCLUDED.datetime,
			method = EXCLUDED.method,
			endpoint = EXCLUDED.endpoint,
			protocol = EXCLUDED.protocol,
			response_code = EXCLUDED.response_code,
			content_size = EXCLUDED.content_size,
			anonymized = EXCLUDED.anonymized;
	`
	_, err = txn.ExecContext(ctx, upsertQuery)
	if err != nil {
		return err
	}

	return txn.Commit()
}

// The buffer-side methods are not implemented for the PostgreSQL sink.

func (r *AccessEventRepository) BufferEvent(ctx context.Context, event domain.AccessEvent) error {
	return errNotImplemented
}

func (r *AccessEventRepository) ReadEventBatch(ctx context.Context, group, consumer string, count int) ([]domain.AccessEvent, error) {
	return nil, errNotImplemented
}

func (r *AccessEventRepository) AcknowledgeEvents(ctx context.Context, group string, messageIDs ...string) error {
	return errNotImplemented
}

func (r *AccessEventRepository) MoveToDLQ(ctx context.Context, events []domain.AccessEvent) error {
	return errNotImplemented
}
