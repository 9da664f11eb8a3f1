// Package sqliterepo persists meter catalogs in a SQLite database.
package sqliterepo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/muscatbay/meterbalance/internal/domain"
	"github.com/muscatbay/meterbalance/internal/repo"
)

var _ repo.CatalogStore = (*Store)(nil)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Load(ctx context.Context, u domain.Utility) (domain.Catalog, error) {
	c := domain.Catalog{Utility: u}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account, label, level, zone, type, parent_account, bulk_reaggregator
		FROM meters WHERE utility = ? ORDER BY position`, string(u))
	if err != nil {
		return c, fmt.Errorf("query meters: %w", err)
	}
	index := make(map[string]int)
	for rows.Next() {
		var (
			m     domain.Meter
			level string
		)
		if err := rows.Scan(&m.ID, &m.AccountNumber, &m.Label, &level, &m.Zone, &m.Type, &m.ParentAccount, &m.BulkReaggregator); err != nil {
			rows.Close()
			return c, fmt.Errorf("scan meter: %w", err)
		}
		m.Level = domain.Level(level)
		m.Readings = make(map[domain.Month]float64)
		index[m.ID] = len(c.Meters)
		c.Meters = append(c.Meters, m)
	}
	if err := closeRows(rows); err != nil {
		return c, fmt.Errorf("iterate meters: %w", err)
	}
	if len(c.Meters) == 0 {
		return c, fmt.Errorf("%s: %w", u, repo.ErrCatalogNotFound)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT meter_id, year, month, quantity FROM readings WHERE utility = ?`, string(u))
	if err != nil {
		return c, fmt.Errorf("query readings: %w", err)
	}
	for rows.Next() {
		var (
			id          string
			year, month int
			q           float64
		)
		if err := rows.Scan(&id, &year, &month, &q); err != nil {
			rows.Close()
			return c, fmt.Errorf("scan reading: %w", err)
		}
		if i, ok := index[id]; ok {
			c.Meters[i].Readings[domain.NewMonth(year, time.Month(month))] = q
		}
	}
	if err := closeRows(rows); err != nil {
		return c, fmt.Errorf("iterate readings: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT code, name, bulk_account FROM zones WHERE utility = ? ORDER BY position`, string(u))
	if err != nil {
		return c, fmt.Errorf("query zones: %w", err)
	}
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.Code, &z.Name, &z.BulkAccount); err != nil {
			rows.Close()
			return c, fmt.Errorf("scan zone: %w", err)
		}
		c.Zones = append(c.Zones, z)
	}
	if err := closeRows(rows); err != nil {
		return c, fmt.Errorf("iterate zones: %w", err)
	}
	return c, nil
}

// Save replaces the stored snapshot for c.Utility in a single transaction.
func (s *Store) Save(ctx context.Context, c domain.Catalog) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}
	u := string(c.Utility)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"readings", "meters", "zones"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE utility = ?", u); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	meterStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO meters (utility, id, account, label, level, zone, type, parent_account, bulk_reaggregator, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare meter insert: %w", err)
	}
	defer meterStmt.Close()

	readingStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (utility, meter_id, year, month, quantity) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare reading insert: %w", err)
	}
	defer readingStmt.Close()

	for i, m := range c.Meters {
		id := m.ID
		if id == "" {
			id = m.AccountNumber
		}
		if _, err := meterStmt.ExecContext(ctx, u, id, m.AccountNumber, m.Label, string(m.Level),
			m.Zone, m.Type, m.ParentAccount, m.BulkReaggregator, i); err != nil {
			return fmt.Errorf("insert meter %q: %w", id, err)
		}
		for month, q := range m.Readings {
			if _, err := readingStmt.ExecContext(ctx, u, id, month.Year, int(month.Month), q); err != nil {
				return fmt.Errorf("insert reading %q %s: %w", id, month, err)
			}
		}
	}

	for i, z := range c.Zones {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO zones (utility, code, name, bulk_account, position) VALUES (?, ?, ?, ?, ?)`,
			u, z.Code, z.Name, z.BulkAccount, i); err != nil {
			return fmt.Errorf("insert zone %q: %w", z.Code, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO imports (utility, meter_count, imported_at) VALUES (?, ?, ?)
		ON CONFLICT (utility) DO UPDATE SET meter_count = excluded.meter_count, imported_at = excluded.imported_at`,
		u, len(c.Meters), s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ImportInfo describes the last Save for a utility.
type ImportInfo struct {
	Utility    domain.Utility
	MeterCount int
	ImportedAt time.Time
}

// Imports lists the last import of every stored utility.
func (s *Store) Imports(ctx context.Context) ([]ImportInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT utility, meter_count, imported_at FROM imports ORDER BY utility`)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	var out []ImportInfo
	for rows.Next() {
		var (
			info ImportInfo
			u, at string
		)
		if err := rows.Scan(&u, &info.MeterCount, &at); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan import: %w", err)
		}
		info.Utility = domain.Utility(u)
		if info.ImportedAt, err = time.Parse(time.RFC3339, at); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse import time %q: %w", at, err)
		}
		out = append(out, info)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}
	return out, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
