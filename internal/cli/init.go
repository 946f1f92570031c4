// Package cli provides common CLI initialization utilities shared by
// cmd/insuralytics and cmd/kpi-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"insuralytics/internal/backend"
	"insuralytics/internal/cache"
	"insuralytics/internal/config"
	"insuralytics/internal/kpi"
	"insuralytics/internal/log"
	"insuralytics/internal/services"
	"insuralytics/internal/target"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger.
func SetupLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithWriter(w, log.ParseLevel(level), log.ComponentApp)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads configuration and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// SessionOptions are the optional collaborators of a session.
type SessionOptions struct {
	Publisher services.EventPublisher
	// Registerer receives cache metrics when non-nil.
	Registerer prometheus.Registerer
	Clock      func() time.Time
}

// Session is a ready dashboard service plus the backend it runs on.
type Session struct {
	Service *services.DashboardService
	Backend backend.Backend
	Cleanup backend.CleanupFunc
}

// NewSession builds the backend selected by cfg, seeds the target store from
// the goal source and loads the record set.
func NewSession(ctx context.Context, cfg *config.Config, logger *log.Logger, opts SessionOptions) (*Session, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	goals := backend.LoadGoals(ctx, res.Backend.Goals)
	store := target.NewStore(goals, now(), target.WithLabel(cfg.TunedVersionLabel))

	var metrics *cache.Metrics
	if opts.Registerer != nil {
		metrics, err = cache.NewMetrics(opts.Registerer)
		if err != nil {
			res.Cleanup()
			return nil, fmt.Errorf("register cache metrics: %w", err)
		}
	}
	results := cache.NewResultCache[kpi.Series]("kpi_series", res.Backend.Cache,
		cache.WithMetrics(metrics),
		cache.WithLogger(logger))

	calc := kpi.NewCalculator(nil)
	if cfg.OtherCostRatio > 0 {
		calc = kpi.NewCalculator(kpi.ExpenseRatio(cfg.OtherCostRatio))
	}

	svcOpts := []services.Option{
		services.WithCalculator(calc),
		services.WithLogger(logger),
		services.WithClock(now),
	}
	if opts.Publisher != nil {
		svcOpts = append(svcOpts, services.WithPublisher(opts.Publisher))
	}
	svc := services.NewDashboardService(store, results, svcOpts...)

	n, err := svc.ReloadRecords(ctx, res.Backend.Records)
	if err != nil {
		res.Cleanup()
		return nil, err
	}
	logger.Info("Session ready",
		log.FieldRecords, n,
		log.FieldVersionID, store.CurrentVersion().ID,
		"data_backend", cfg.DataBackend,
		"cache_backend", cfg.CacheBackend)

	return &Session{Service: svc, Backend: res.Backend, Cleanup: res.Cleanup}, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
