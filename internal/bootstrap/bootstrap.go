// Package bootstrap holds the start-up steps shared by the binaries:
// .env loading, logger construction and catalog backend selection.
package bootstrap

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/muscatbay/meterbalance/internal/config"
	"github.com/muscatbay/meterbalance/internal/logging"
	"github.com/muscatbay/meterbalance/internal/repo"
	"github.com/muscatbay/meterbalance/internal/repo/csvrepo"
	"github.com/muscatbay/meterbalance/internal/repo/sqliterepo"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Logger builds the process logger from cfg.
func Logger(cfg *config.Config, component string) (zerolog.Logger, error) {
	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return l, err
	}
	return logging.Component(l, component), nil
}

// Catalog is an open catalog source. Close releases backend resources.
type Catalog struct {
	repo.CatalogRepository
	Close func() error
}

// OpenCatalog opens the configured backend. CSV rows that fail to parse are
// logged and skipped; a source with no usable catalog is an error.
func OpenCatalog(cfg *config.Config, log zerolog.Logger) (Catalog, error) {
	noop := func() error { return nil }

	switch cfg.DataBackend {
	case config.BackendFallback, "":
		r, err := csvrepo.NewFallback()
		if r == nil {
			return Catalog{}, fmt.Errorf("load fallback dataset: %w", err)
		}
		if err != nil {
			log.Warn().Err(err).Msg("fallback dataset has skipped rows")
		}
		log.Info().Str("backend", config.BackendFallback).Msg("catalog ready")
		return Catalog{CatalogRepository: r, Close: noop}, nil

	case config.BackendCSV:
		r, err := csvrepo.NewFromDir(cfg.CSVDir)
		if r == nil {
			return Catalog{}, fmt.Errorf("load csv catalogs from %q: %w", cfg.CSVDir, err)
		}
		if err != nil {
			// Some rows may be unusable (e.g. NaN). Keep going with the rest.
			log.Warn().Err(err).Str("dir", cfg.CSVDir).Msg("csv catalogs have skipped rows")
		}
		log.Info().Str("backend", config.BackendCSV).Str("dir", cfg.CSVDir).
			Int("utilities", len(r.Utilities())).Msg("catalog ready")
		return Catalog{CatalogRepository: r, Close: noop}, nil

	case config.BackendSQLite:
		s, err := sqliterepo.Open(cfg.SQLitePath)
		if err != nil {
			return Catalog{}, fmt.Errorf("open sqlite catalog %q: %w", cfg.SQLitePath, err)
		}
		log.Info().Str("backend", config.BackendSQLite).Str("path", cfg.SQLitePath).Msg("catalog ready")
		return Catalog{CatalogRepository: s, Close: s.Close}, nil
	}
	return Catalog{}, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
}
