package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS access_events (
		event_id UUID PRIMARY KEY,
		received_at TIMESTAMPTZ NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		ipaddress TEXT NOT NULL,
		client_identd TEXT NOT NULL DEFAULT '-',
		user_id TEXT NOT NULL DEFAULT '-',
		datetime TEXT NOT NULL,
		method TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		protocol TEXT NOT NULL,
		response_code INT NOT NULL,
		content_size BIGINT NOT NULL,
		anonymized BOOLEAN NOT NULL DEFAULT false
	);`,
	`CREATE INDEX IF NOT EXISTS idx_access_events_response_code ON access_events (response_code);`,
	`CREATE INDEX IF NOT EXISTS idx_access_events_endpoint ON access_events (endpoint);`,
	`CREATE INDEX IF NOT EXISTS idx_access_events_ipaddress ON access_events (ipaddress);`,
	`CREATE TABLE IF NOT EXISTS response_codes (
		code INT PRIMARY KEY,
		description TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS ip_countries (
		ipaddress TEXT PRIMARY KEY,
		country TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		key TEXT PRIMARY KEY,
		is_active BOOLEAN NOT NULL DEFAULT true,
		expires_at TIMESTAMPTZ
	);`,
}

// EnsureSchema creates the pipeline tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
