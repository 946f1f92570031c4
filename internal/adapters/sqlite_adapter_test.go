package adapters

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"insuralytics/internal/core"
	"insuralytics/internal/sources/memory"
	"insuralytics/internal/storage"
)

type failingSource struct{}

func (failingSource) ListRecords(context.Context) ([]core.InsuranceRecord, error) {
	return nil, errors.New("seed unavailable")
}

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "adapter.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteAdapter_SeedsEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seed := memory.New([]core.InsuranceRecord{
		{PolicyStartYear: 2025, WeekNumber: 1, SignedPremium: 10},
		{PolicyStartYear: 2025, WeekNumber: 2, SignedPremium: 20},
	}, nil)

	a := NewSQLiteAdapter(repo, seed)
	recs, err := a.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("ListRecords() = %d records, want 2", len(recs))
	}

	// A second read does not seed again
	recs, _ = a.ListRecords(ctx)
	if len(recs) != 2 {
		t.Fatalf("ListRecords() after seeding = %d records, want 2", len(recs))
	}
}

func TestSQLiteAdapter_DoesNotSeedPopulatedDatabase(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.InsertRecords(ctx, []core.InsuranceRecord{{PolicyStartYear: 2024, WeekNumber: 52}}); err != nil {
		t.Fatal(err)
	}

	a := NewSQLiteAdapter(repo, failingSource{})
	recs, err := a.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(recs) != 1 || recs[0].PolicyStartYear != 2024 {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestSQLiteAdapter_SeedFailure(t *testing.T) {
	a := NewSQLiteAdapter(newRepo(t), failingSource{})
	if _, err := a.ListRecords(context.Background()); err == nil {
		t.Fatal("expected seed failure to surface")
	}
}

func TestSQLiteAdapter_ReplaceRecords(t *testing.T) {
	ctx := context.Background()
	a := NewSQLiteAdapter(newRepo(t), nil)

	if err := a.ReplaceRecords(ctx, []core.InsuranceRecord{{PolicyStartYear: 2025, WeekNumber: 5}}); err != nil {
		t.Fatalf("ReplaceRecords() error = %v", err)
	}
	recs, err := a.ListRecords(ctx)
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListRecords() = %v, %v", recs, err)
	}
}
