package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/logsift/logsift/internal/domain"
)

// StatsRepository implements domain.StatsRepository against the PostgreSQL
// sink. The queries mirror the exploratory aggregations the data set is
// collected for: status-code distribution, hot endpoints, geographic spread.
type StatsRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStatsRepository creates a new PostgreSQL stats repository.
func NewStatsRepository(db *sql.DB, logger *slog.Logger) *StatsRepository {
	return &StatsRepository{db: db, logger: logger}
}

// StatusCodeCounts returns hit counts per response code, joined with the
// response_codes mapping table for the human-readable description.
func (r *StatsRepository) StatusCodeCounts(ctx context.Context) ([]domain.StatusCodeCount, error) {
	query := `
		SELECT e.response_code, COALESCE(rc.description, ''), COUNT(*) AS hits
		FROM access_events e
		LEFT JOIN response_codes rc ON rc.code = e.response_code
		GROUP BY e.response_code, rc.description
		ORDER BY hits DESC;
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query status code counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.StatusCodeCount
	for rows.Next() {
		var c domain.StatusCodeCount
		if err := rows.Scan(&c.Code, &c.Description, &c.Hits); err != nil {
			return nil, fmt.Errorf("failed to scan status code row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TopEndpoints returns the most requested endpoints.
func (r *StatsRepository) TopEndpoints(ctx context.Context, limit int) ([]domain.EndpointHits, error) {
	query := `
		SELECT endpoint, COUNT(*) AS hits
		FROM access_events
		GROUP BY endpoint
		ORDER BY hits DESC
		LIMIT $1;
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top endpoints: %w", err)
	}
	defer rows.Close()

	var hits []domain.EndpointHits
	for rows.Next() {
		var h domain.EndpointHits
		if err := rows.Scan(&h.Endpoint, &h.Hits); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint row: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// TrafficByCountry returns hit and byte counts per country via the
// ip_countries mapping table. Unmapped addresses land in "unknown".
func (r *StatsRepository) TrafficByCountry(ctx context.Context, limit int) ([]domain.CountryTraffic, error) {
	query := `
		SELECT COALESCE(ic.country, 'unknown') AS country, COUNT(*) AS hits, COALESCE(SUM(e.content_size), 0)
		FROM access_events e
		LEFT JOIN ip_countries ic ON ic.ipaddress = e.ipaddress
		GROUP BY country
		ORDER BY hits DESC
		LIMIT $1;
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query traffic by country: %w", err)
	}
	defer rows.Close()

	var traffic []domain.CountryTraffic
	for rows.Next() {
		var t domain.CountryTraffic
		if err := rows.Scan(&t.Country, &t.Hits, &t.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan country row: %w", err)
		}
		traffic = append(traffic, t)
	}
	return traffic, rows.Err()
}

// Summary returns the overall shape of the sunk data set.
func (r *StatsRepository) Summary(ctx context.Context) (*domain.TrafficSummary, error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT ipaddress), COALESCE(SUM(content_size), 0)
		FROM access_events;
	`
	var s domain.TrafficSummary
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.Events, &s.DistinctIPs, &s.TotalBytes); err != nil {
		return nil, fmt.Errorf("failed to query traffic summary: %w", err)
	}
	return &s, nil
}
