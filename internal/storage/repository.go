package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/table"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Repository stores the record table in a SQL database. Rows are ordered by
// an auto-incrementing sequence so the append order survives reloads.
type Repository struct {
	db *sqlx.DB
}

var (
	_ table.Store  = (*Repository)(nil)
	_ table.Mirror = (*Repository)(nil)
)

type recordRow struct {
	Seq      int64           `db:"seq"`
	Date     string          `db:"date"`
	Category string          `db:"category"`
	Type     string          `db:"type"`
	Amount   decimal.Decimal `db:"amount"`
}

func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DriverSQLite, dbPath)
}

func NewPostgresRepository(dsn string) (*Repository, error) {
	return open(DriverPostgres, dsn)
}

func open(driverName, dsn string) (*Repository, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if driverName == DriverSQLite {
		// A single writer keeps SQLite from returning SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(driverName, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements table.Store
func (r *Repository) Load(ctx context.Context) (core.Table, error) {
	var rows []recordRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT seq, date, category, type, amount FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}

	out := make(core.Table, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: seq %d: %v", table.ErrMalformedRow, row.Seq, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Append implements table.Store
func (r *Repository) Append(ctx context.Context, rec core.Record) (core.Table, error) {
	if err := r.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return r.Load(ctx)
}

// Clear implements table.Store
func (r *Repository) Clear(ctx context.Context) error {
	return r.Reset(ctx)
}

// Insert implements table.Mirror
func (r *Repository) Insert(ctx context.Context, rec core.Record) error {
	query := r.db.Rebind(`INSERT INTO records (date, category, type, amount) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query,
		rec.Date.String(), string(rec.Category), string(rec.Type), rec.Amount); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to database",
		"driver", r.db.DriverName(),
		"date", rec.Date.String(),
		"category", rec.Category,
		"type", rec.Type,
		"amount", rec.Amount.String())
	return nil
}

// Reset implements table.Mirror
func (r *Repository) Reset(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records`)
	if err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.InfoContext(ctx, "Database records cleared", "driver", r.db.DriverName(), "deleted", n)
	return nil
}

func (row recordRow) toRecord() (core.Record, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Record{}, err
	}
	c, err := core.ParseCategory(row.Category)
	if err != nil {
		return core.Record{}, err
	}
	t, err := core.ParseRecordType(row.Type)
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{Date: d, Category: c, Type: t, Amount: row.Amount}, nil
}
