package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"insuralytics/internal/adapters"
	"insuralytics/internal/cache"
	"insuralytics/internal/core"
	"insuralytics/internal/kpi"
	"insuralytics/internal/log"
	"insuralytics/internal/sources"
	gsheet "insuralytics/internal/sources/google"
	"insuralytics/internal/sources/memory"
	"insuralytics/internal/storage"
	"insuralytics/internal/target"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data" // Default directory
	}
	seed, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("load seed data: %w", err)
	}

	var (
		result   = &BackendResult{}
		cleanups []CleanupFunc
	)
	result.Cleanup = func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		adapter := adapters.NewSQLiteAdapter(repo, seed)
		cleanups = append(cleanups, adapter.Close)
		result.Backend.Records = adapter
		result.Backend.Writer = adapter
		f.logger.Info("Initialized SQLite record backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		result.Backend.Records = seed
		result.Backend.Writer = seed
		f.logger.Info("Initialized memory record backend", "data_directory", dataDir)
	}

	switch config.Goals {
	case SheetsGoals:
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			result.Cleanup()
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		result.Backend.Goals = cli
		f.logger.Info("Initialized Google Sheets goal source", "sheet", config.GoogleGoalsSheetName)
	case FileGoals:
		result.Backend.Goals = seed
	}

	if config.Cache == RedisCache {
		rc := cache.NewRedisCache[kpi.Series](cache.RedisConfig{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			Timeout:  config.RedisTimeout,
		}, f.logger)
		if err := rc.Ping(ctx); err != nil {
			// The cache is best-effort; keep it and let calls degrade to misses.
			f.logger.Warn("Redis not reachable, results will be recomputed", "addr", config.RedisAddr, "error", err)
		}
		cleanups = append(cleanups, rc.Close)
		result.Backend.Cache = rc
	} else {
		result.Backend.Cache = cache.NewLRUCache[kpi.Series](config.CacheMaxEntries)
	}

	return result, nil
}

// LoadGoals reads baseline goals. Rows rejected by validation are skipped;
// when the source fails or yields nothing the built-in defaults are used.
func LoadGoals(ctx context.Context, src sources.GoalSource) []target.GoalRow {
	rows, err := src.ReadGoals(ctx)
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr) && len(rows) > 0:
		slog.WarnContext(ctx, "Skipped invalid goal rows", "rejected_rows", len(verr.Rows), "error", err)
		return rows
	case err != nil:
		slog.WarnContext(ctx, "Goal source failed, using defaults", "error", err)
		return memory.DefaultGoals()
	case len(rows) == 0:
		slog.WarnContext(ctx, "Goal source is empty, using defaults")
		return memory.DefaultGoals()
	}
	return rows
}
