package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"insuralytics/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "kpi", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRecords() []core.InsuranceRecord {
	return []core.InsuranceRecord{
		{PolicyStartYear: 2025, WeekNumber: 10, SignedPremium: 300, MaturedPremium: 150, LossAmount: 90, BusinessType: "非营业客车新车", Organization: "天府"},
		{PolicyStartYear: 2024, WeekNumber: 52, SignedPremium: 100, MaturedPremium: 80, LossAmount: 40, BusinessType: "摩托车", Organization: "高新"},
		{PolicyStartYear: 2025, WeekNumber: 9, SignedPremium: 200, MaturedPremium: 100, LossAmount: 60, BusinessType: "摩托车", Organization: "天府", CustomerCategory: "个人", InsuranceType: "商业险"},
	}
}

func TestSQLiteRepository_InsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.InsertRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("InsertRecords() error = %v", err)
	}

	n, err := repo.CountRecords(ctx)
	if err != nil {
		t.Fatalf("CountRecords() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountRecords() = %d, want 3", n)
	}

	records, err := repo.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("ListRecords() returned %d records, want 3", len(records))
	}

	// Ordered by year, then week
	wantPeriods := []core.PeriodKey{{Year: 2024, Week: 52}, {Year: 2025, Week: 9}, {Year: 2025, Week: 10}}
	for i, want := range wantPeriods {
		if got := records[i].Period(); got != want {
			t.Errorf("records[%d].Period() = %v, want %v", i, got, want)
		}
	}
	if records[1] != sampleRecords()[2] {
		t.Errorf("round-tripped record = %+v, want %+v", records[1], sampleRecords()[2])
	}
}

func TestSQLiteRepository_ListRecordsByYear(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.InsertRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("InsertRecords() error = %v", err)
	}

	records, err := repo.ListRecordsByYear(ctx, 2025)
	if err != nil {
		t.Fatalf("ListRecordsByYear() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListRecordsByYear(2025) returned %d records, want 2", len(records))
	}
	if records[0].WeekNumber != 9 || records[1].WeekNumber != 10 {
		t.Errorf("unexpected week order: %d, %d", records[0].WeekNumber, records[1].WeekNumber)
	}
}

func TestSQLiteRepository_InsertRejectsInvalidBatch(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	batch := sampleRecords()
	batch = append(batch, core.InsuranceRecord{PolicyStartYear: 2025, WeekNumber: 0})

	err := repo.InsertRecords(ctx, batch)
	if !errors.Is(err, core.ErrInvalidWeek) {
		t.Fatalf("InsertRecords() error = %v, want ErrInvalidWeek", err)
	}

	n, err := repo.CountRecords(ctx)
	if err != nil {
		t.Fatalf("CountRecords() error = %v", err)
	}
	if n != 0 {
		t.Errorf("CountRecords() = %d after rejected batch, want 0", n)
	}
}

func TestSQLiteRepository_ReplaceRecords(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.InsertRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("InsertRecords() error = %v", err)
	}
	replacement := []core.InsuranceRecord{{PolicyStartYear: 2026, WeekNumber: 1, SignedPremium: 10}}
	if err := repo.ReplaceRecords(ctx, replacement); err != nil {
		t.Fatalf("ReplaceRecords() error = %v", err)
	}

	records, err := repo.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 1 || records[0].PolicyStartYear != 2026 {
		t.Errorf("ListRecords() after replace = %+v", records)
	}
}

func TestSQLiteRepository_EmptyDatabase(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	records, err := repo.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ListRecords() on empty database = %d records, want 0", len(records))
	}
	if err := repo.InsertRecords(ctx, nil); err != nil {
		t.Errorf("InsertRecords(nil) error = %v", err)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first RunMigrations() error = %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.db")

	version, _, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion() before migrations error = %v", err)
	}
	if version != 0 {
		t.Errorf("SchemaVersion() before migrations = %d, want 0", version)
	}

	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	version, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("SchemaVersion() = (%d, %v), want (1, false)", version, dirty)
	}
}
