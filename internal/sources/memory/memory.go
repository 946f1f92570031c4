package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"

	"insuralytics/internal/core"
	"insuralytics/internal/sources"
	"insuralytics/internal/target"
)

// Seed file names looked up in the data directory.
const (
	RecordsFile = "records.csv"
	GoalsFile   = "seed_goals.csv"
)

// Store is an in-memory record and goal source.
type Store struct {
	mu      sync.Mutex
	records []core.InsuranceRecord
	goals   []target.GoalRow
}

func New(records []core.InsuranceRecord, goals []target.GoalRow) *Store {
	return &Store{
		records: append([]core.InsuranceRecord(nil), records...),
		goals:   append([]target.GoalRow(nil), goals...),
	}
}

// NewFromFiles seeds the store from base/records.csv and base/seed_goals.csv.
// A missing records file yields an empty record set; a missing or unusable
// goals file falls back to DefaultGoals.
func NewFromFiles(base string) (*Store, error) {
	records, err := readRecords(filepath.Join(base, RecordsFile))
	if err != nil {
		return nil, err
	}

	goals, err := readGoals(filepath.Join(base, GoalsFile))
	if err != nil {
		slog.Warn("Falling back to default goals", "file", filepath.Join(base, GoalsFile), "error", err)
		goals = nil
	}
	if len(goals) == 0 {
		goals = DefaultGoals()
	}
	return New(records, goals), nil
}

// DefaultGoals is the built-in baseline used when no seed file is present.
func DefaultGoals() []target.GoalRow {
	values := map[string]int64{
		"非营业客车新车":       12100,
		"非营业客车旧车非过户":    7000,
		"非营业客车旧车过户":     2600,
		"1吨以下非营业货车":     1200,
		"1吨以上非营业货车":     1500,
		"2吨以下营业货车":      1800,
		"2-9吨营业货车":      2200,
		"9-10吨营业货车":     1400,
		"10吨以上营业货车（普货）": 3500,
		"10吨以上营业货车（牵引）": 4200,
		"自卸":            900,
		"特种车":           1100,
		"摩托车":           700,
		"出租车":           600,
		"网约车":           1300,
		"其他":            1000,
	}
	var rows []target.GoalRow
	var total decimal.Decimal
	for _, label := range target.DefaultBusinessTypes {
		v, ok := values[label]
		if !ok {
			continue
		}
		d := decimal.NewFromInt(v)
		total = total.Add(d)
		rows = append(rows, target.GoalRow{Dimension: core.DimBusinessType, Label: label, Target: d})
	}
	return append([]target.GoalRow{{Dimension: core.DimBusinessType, Label: core.OverallBusinessType, Target: total}}, rows...)
}

// ListRecords implements sources.RecordSource
func (s *Store) ListRecords(_ context.Context) ([]core.InsuranceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.InsuranceRecord(nil), s.records...), nil
}

// ReadGoals implements sources.GoalSource
func (s *Store) ReadGoals(_ context.Context) ([]target.GoalRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]target.GoalRow(nil), s.goals...), nil
}

// ReplaceRecords implements sources.RecordWriter
func (s *Store) ReplaceRecords(_ context.Context, records []core.InsuranceRecord) error {
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.InsuranceRecord(nil), records...)
	return nil
}

func readRecords(path string) ([]core.InsuranceRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()

	records, err := sources.ReadRecordsCSV(f)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		slog.Warn("Skipped invalid record rows", "file", path, "rows", len(verr.Rows), "first", verr.Rows[0].String())
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read records file %s: %w", path, err)
	}
	return records, nil
}

func readGoals(path string) ([]target.GoalRow, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := target.ParseGoalCSV(f, target.NewKnownSet(target.DefaultBusinessTypes))
	if err != nil {
		return nil, err
	}
	return rows, nil
}
