package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"insuralytics/internal/cache"
	"insuralytics/internal/config"
	"insuralytics/internal/core"
	"insuralytics/internal/kpi"
	"insuralytics/internal/target"
)

func TestConfig_Validate(t *testing.T) {
	base := Config{Type: MemoryBackend, Goals: FileGoals, Cache: MemoryCache}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid memory", func(c *Config) {}, false},
		{"invalid type", func(c *Config) { c.Type = "sheets" }, true},
		{"invalid goals", func(c *Config) { c.Goals = "db" }, true},
		{"invalid cache", func(c *Config) { c.Cache = "disk" }, true},
		{"sqlite without path", func(c *Config) { c.Type = SQLiteBackend }, true},
		{"sheets without id", func(c *Config) { c.Goals = SheetsGoals }, true},
		{"redis without addr", func(c *Config) { c.Cache = RedisCache }, true},
		{"redis with addr", func(c *Config) { c.Cache = RedisCache; c.RedisAddr = "localhost:6379" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	app := &config.Config{
		DataBackend:     "sqlite",
		SQLiteDBPath:    "/tmp/kpi.db",
		DataDir:         "/tmp",
		GoalSource:      "file",
		CacheBackend:    "memory",
		CacheMaxEntries: 32,
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.Goals != FileGoals || cfg.Cache != MemoryCache || cfg.CacheMaxEntries != 32 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	app.DataBackend = "postgres"
	if _, err := FromAppConfig(app); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "records.csv"), []byte("policy_start_year,week_number,signed_premium\n2025,1,10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type: MemoryBackend, Goals: FileGoals, Cache: MemoryCache,
		DataDirectory: dir, CacheMaxEntries: 4,
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	recs, err := res.Backend.Records.ListRecords(context.Background())
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListRecords() = %v, %v", recs, err)
	}
	if _, ok := res.Backend.Cache.(*cache.LRUCache[kpi.Series]); !ok {
		t.Errorf("expected LRU cache, got %T", res.Backend.Cache)
	}
	if res.Backend.Writer == nil || res.Backend.Goals == nil {
		t.Errorf("expected writer and goal source to be set")
	}
}

func TestCreateBackend_SQLiteSeedsFromDataDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "records.csv"), []byte("policy_start_year,week_number\n2025,1\n2025,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type: SQLiteBackend, Goals: FileGoals, Cache: MemoryCache,
		DataDirectory: dir, SQLiteDBPath: filepath.Join(dir, "db", "kpi.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			t.Errorf("Cleanup() error = %v", err)
		}
	}()

	recs, err := res.Backend.Records.ListRecords(context.Background())
	if err != nil || len(recs) != 2 {
		t.Fatalf("ListRecords() = %v, %v", recs, err)
	}
}

func TestCreateBackend_RedisUnreachableIsNotFatal(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type: MemoryBackend, Goals: FileGoals, Cache: RedisCache,
		DataDirectory: t.TempDir(), RedisAddr: "127.0.0.1:1",
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Backend.Cache.(*cache.RedisCache[kpi.Series]); !ok {
		t.Errorf("expected redis cache, got %T", res.Backend.Cache)
	}
}

type stubGoals struct {
	rows []target.GoalRow
	err  error
}

func (s stubGoals) ReadGoals(context.Context) ([]target.GoalRow, error) {
	return s.rows, s.err
}

func TestLoadGoals(t *testing.T) {
	ctx := context.Background()
	one := []target.GoalRow{{Dimension: core.DimBusinessType, Label: "摩托车", Target: decimal.NewFromInt(5)}}

	if got := LoadGoals(ctx, stubGoals{rows: one}); len(got) != 1 {
		t.Errorf("LoadGoals() = %v, want source rows", got)
	}
	partial := stubGoals{rows: one, err: &core.ValidationError{Rows: []core.RowError{{Line: 3, Reason: "unknown business type"}}}}
	if got := LoadGoals(ctx, partial); len(got) != 1 {
		t.Errorf("LoadGoals() with rejected rows = %v, want valid rows", got)
	}
	if got := LoadGoals(ctx, stubGoals{err: errors.New("quota exceeded")}); target.NewTable(got).Overall() != 43100 {
		t.Errorf("LoadGoals() on failure should return defaults, got %v", got)
	}
	if got := LoadGoals(ctx, stubGoals{}); len(got) == 0 {
		t.Error("LoadGoals() on empty source should return defaults")
	}
}
