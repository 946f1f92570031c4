package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"insuralytics/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
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

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertRecords stores records in a single transaction. Invalid records
// abort the whole batch.
func (r *SQLiteRepository) InsertRecords(ctx context.Context, records []core.InsuranceRecord) error {
	if len(records) == 0 {
		return nil
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, rec := range records {
		if err := q.InsertRecord(ctx, toParams(rec)); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Insurance records saved to SQLite", "count", len(records))
	return nil
}

// ReplaceRecords swaps the stored record set for records atomically.
func (r *SQLiteRepository) ReplaceRecords(ctx context.Context, records []core.InsuranceRecord) error {
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteAllRecords(ctx); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	for _, rec := range records {
		if err := q.InsertRecord(ctx, toParams(rec)); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Insurance records replaced in SQLite", "count", len(records))
	return nil
}

// ListRecords implements sources.RecordSource
func (r *SQLiteRepository) ListRecords(ctx context.Context) ([]core.InsuranceRecord, error) {
	rows, err := r.queries.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return fromRows(rows), nil
}

func (r *SQLiteRepository) ListRecordsByYear(ctx context.Context, year int) ([]core.InsuranceRecord, error) {
	rows, err := r.queries.ListRecordsByYear(ctx, int64(year))
	if err != nil {
		return nil, fmt.Errorf("list records for year %d: %w", year, err)
	}
	return fromRows(rows), nil
}

func (r *SQLiteRepository) CountRecords(ctx context.Context) (int, error) {
	n, err := r.queries.CountRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return int(n), nil
}

func toParams(rec core.InsuranceRecord) InsertRecordParams {
	return InsertRecordParams{
		PolicyStartYear:  int64(rec.PolicyStartYear),
		WeekNumber:       int64(rec.WeekNumber),
		SignedPremium:    rec.SignedPremium,
		MaturedPremium:   rec.MaturedPremium,
		LossAmount:       rec.LossAmount,
		BusinessType:     rec.BusinessType,
		Organization:     rec.Organization,
		CustomerCategory: rec.CustomerCategory,
		InsuranceType:    rec.InsuranceType,
	}
}

func fromRows(rows []InsuranceRecord) []core.InsuranceRecord {
	records := make([]core.InsuranceRecord, len(rows))
	for i, row := range rows {
		records[i] = core.InsuranceRecord{
			PolicyStartYear:  int(row.PolicyStartYear),
			WeekNumber:       int(row.WeekNumber),
			SignedPremium:    row.SignedPremium,
			MaturedPremium:   row.MaturedPremium,
			LossAmount:       row.LossAmount,
			BusinessType:     row.BusinessType,
			Organization:     row.Organization,
			CustomerCategory: row.CustomerCategory,
			InsuranceType:    row.InsuranceType,
		}
	}
	return records
}
