package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"insuralytics/internal/core"
	"insuralytics/internal/sources"
	"insuralytics/internal/storage"
)

// SQLiteAdapter serves records from SQLite and seeds an empty database
// from another record source on first read.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	seed    sources.RecordSource

	seedOnce sync.Once
	seedErr  error
}

var (
	_ sources.RecordSource = (*SQLiteAdapter)(nil)
	_ sources.RecordWriter = (*SQLiteAdapter)(nil)
)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, seed sources.RecordSource) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		seed:    seed,
	}
}

// ListRecords implements sources.RecordSource
func (a *SQLiteAdapter) ListRecords(ctx context.Context) ([]core.InsuranceRecord, error) {
	a.seedOnce.Do(func() { a.seedErr = a.seedIfEmpty(ctx) })
	if a.seedErr != nil {
		return nil, a.seedErr
	}
	return a.storage.ListRecords(ctx)
}

// ReplaceRecords implements sources.RecordWriter
func (a *SQLiteAdapter) ReplaceRecords(ctx context.Context, records []core.InsuranceRecord) error {
	return a.storage.ReplaceRecords(ctx, records)
}

func (a *SQLiteAdapter) seedIfEmpty(ctx context.Context) error {
	if a.seed == nil {
		return nil
	}
	n, err := a.storage.CountRecords(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	records, err := a.seed.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("read seed records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	if err := a.storage.InsertRecords(ctx, records); err != nil {
		return fmt.Errorf("seed records: %w", err)
	}
	slog.InfoContext(ctx, "Seeded empty database", "records", len(records))
	return nil
}

func (a *SQLiteAdapter) Close() error {
	return a.storage.Close()
}
