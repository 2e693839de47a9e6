package postgres

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// mappingDelimiter separates key and value in the auxiliary mapping files.
const mappingDelimiter = "\t"

// LookupRepository loads the delimited mapping tables (response code
// descriptions, IP-to-country) into PostgreSQL. These files need no pattern
// logic, just a fixed-delimiter split per line.
type LookupRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLookupRepository creates a new PostgreSQL lookup repository.
func NewLookupRepository(db *sql.DB, logger *slog.Logger) *LookupRepository {
	return &LookupRepository{db: db, logger: logger.With("component", "lookup_repository")}
}

// splitMapping splits one mapping line into key and value on the first
// delimiter. Blank lines and lines starting with '#' are skipped.
func splitMapping(line string) (key, value string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	key, value, found := strings.Cut(line, mappingDelimiter)
	if !found || key == "" {
		return "", "", false
	}
	return key, value, true
}

// LoadResponseCodes replaces the response_codes table with the rows read
// from r. Lines with a non-numeric code are skipped with a warning.
func (l *LookupRepository) LoadResponseCodes(ctx context.Context, r io.Reader) (int, error) {
	return l.load(ctx, r, "response_codes", func(stmt *sql.Stmt, key, value string) (bool, error) {
		code, err := strconv.Atoi(key)
		if err != nil {
			l.logger.Warn("skipping response code row with non-numeric code", "code", key)
			return false, nil
		}
		_, err = stmt.ExecContext(ctx, code, value)
		return err == nil, err
	})
}

// LoadIPCountries replaces the ip_countries table with the rows read from r.
func (l *LookupRepository) LoadIPCountries(ctx context.Context, r io.Reader) (int, error) {
	return l.load(ctx, r, "ip_countries", func(stmt *sql.Stmt, key, value string) (bool, error) {
		_, err := stmt.ExecContext(ctx, key, value)
		return err == nil, err
	})
}

func (l *LookupRepository) load(ctx context.Context, r io.Reader, table string, exec func(stmt *sql.Stmt, key, value string) (bool, error)) (int, error) {
	txn, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	// Mapping tables are small and fully replaced on every load.
	if _, err := txn.ExecContext(ctx, `TRUNCATE TABLE `+table+`;`); err != nil {
		return 0, fmt.Errorf("failed to truncate %s: %w", table, err)
	}

	var columns []string
	switch table {
	case "response_codes":
		columns = []string{"code", "description"}
	case "ip_countries":
		columns = []string{"ipaddress", "country"}
	default:
		return 0, fmt.Errorf("unknown mapping table %q", table)
	}

	stmt, err := txn.Prepare(pq.CopyIn(table, columns...))
	if err != nil {
		return 0, err
	}

	count := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := splitMapping(scanner.Text())
		if !ok {
			continue
		}
		loaded, err := exec(stmt, key, value)
		if err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("failed to stage %s row: %w", table, err)
		}
		if loaded {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("failed to read mapping input: %w", err)
	}

	if err := stmt.Close(); err != nil {
		return 0, err
	}
	if err := txn.Commit(); err != nil {
		return 0, err
	}

	l.logger.Info("loaded mapping table", "table", table, "rows", count)
	return count, nil
}
