package sustainability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const registrySchema = `
CREATE TABLE IF NOT EXISTS vendors (
	name       TEXT PRIMARY KEY,
	esg_rating TEXT NOT NULL DEFAULT '',
	b_corp     INTEGER NOT NULL DEFAULT 0
)`

// VendorRecord is one row of the vendor registry.
type VendorRecord struct {
	Name      string
	ESGRating string
	BCorp     bool
}

// SQLiteRegistry answers vendor rating and B-Corp lookups from a local
// SQLite table. A registered name matches any vendor name containing it;
// the longest registered name wins.
type SQLiteRegistry struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLiteRegistry opens dsn (a file path or ":memory:") and ensures the schema exists.
func OpenSQLiteRegistry(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open vendor registry: %w", err)
	}
	// every :memory: connection is its own database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, registrySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate vendor registry: %w", err)
	}
	logger.Info("sustainability.registry.open", "dsn", dsn)
	return &SQLiteRegistry{db: db, logger: logger}, nil
}

func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

// Upsert inserts or replaces a vendor record.
func (r *SQLiteRegistry) Upsert(ctx context.Context, v VendorRecord) error {
	name := strings.TrimSpace(v.Name)
	if name == "" {
		return errors.New("vendor name is required")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vendors (name, esg_rating, b_corp) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET esg_rating = excluded.esg_rating, b_corp = excluded.b_corp`,
		name, v.ESGRating, v.BCorp)
	if err != nil {
		return fmt.Errorf("upsert vendor %q: %w", name, err)
	}
	return nil
}

func (r *SQLiteRegistry) lookup(ctx context.Context, vendor string) (VendorRecord, error) {
	var rec VendorRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT name, esg_rating, b_corp FROM vendors
		 WHERE instr(?, name) > 0
		 ORDER BY length(name) DESC LIMIT 1`, vendor).
		Scan(&rec.Name, &rec.ESGRating, &rec.BCorp)
	if errors.Is(err, sql.ErrNoRows) {
		return VendorRecord{}, ErrNoData
	}
	if err != nil {
		return VendorRecord{}, fmt.Errorf("lookup vendor: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRegistry) ESGRating(ctx context.Context, vendor string) (string, error) {
	rec, err := r.lookup(ctx, vendor)
	if err != nil {
		return "", err
	}
	if rec.ESGRating == "" {
		return "", ErrNoData
	}
	return rec.ESGRating, nil
}

func (r *SQLiteRegistry) IsBCorp(ctx context.Context, vendor string) (bool, error) {
	rec, err := r.lookup(ctx, vendor)
	if err != nil {
		return false, err
	}
	return rec.BCorp, nil
}
