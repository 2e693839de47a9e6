package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	_ "github.com/lib/pq"

	"github.com/logsift/logsift/internal/adapter/repository/postgres"
	"github.com/logsift/logsift/internal/pkg/config"
	"github.com/logsift/logsift/internal/pkg/logger"
)

// loadmaps loads the auxiliary mapping tables (response-code descriptions,
// IP-to-country) from their delimited source files into PostgreSQL. Run it
// once before the first stats query, and again whenever the files change.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	lookupRepo := postgres.NewLookupRepository(db, log)

	codesFile, err := os.Open(cfg.ResponseCodesFile)
	if err != nil {
		log.Error("failed to open response codes file", "path", cfg.ResponseCodesFile, "error", err)
		os.Exit(1)
	}
	defer codesFile.Close()

	codeRows, err := lookupRepo.LoadResponseCodes(ctx, codesFile)
	if err != nil {
		log.Error("failed to load response codes", "error", err)
		os.Exit(1)
	}
	log.Info("loaded response code mapping", "rows", codeRows)

	countriesFile, err := os.Open(cfg.IPCountriesFile)
	if err != nil {
		log.Error("failed to open ip countries file", "path", cfg.IPCountriesFile, "error", err)
		os.Exit(1)
	}
	defer countriesFile.Close()

	countryRows, err := lookupRepo.LoadIPCountries(ctx, countriesFile)
	if err != nil {
		log.Error("failed to load ip countries", "error", err)
		os.Exit(1)
	}
	log.Info("loaded ip country mapping", "rows", countryRows)
}
