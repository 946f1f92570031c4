package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"insuralytics/internal/amqp"
	"insuralytics/internal/cache"
	"insuralytics/internal/core"
	"insuralytics/internal/filter"
	"insuralytics/internal/kpi"
	"insuralytics/internal/log"
	"insuralytics/internal/sources"
	"insuralytics/internal/target"
)

// ErrNoGoalRows is returned when an import contains no usable rows.
var ErrNoGoalRows = errors.New("no valid goal rows")

// EventPublisher announces cache invalidations to other processes.
type EventPublisher interface {
	PublishInvalidation(ctx context.Context, reason, versionID string) error
}

type Option func(*DashboardService)

func WithCalculator(c kpi.Calculator) Option {
	return func(s *DashboardService) { s.calc = c }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *DashboardService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *DashboardService) { s.logger = l }
}

// WithManager registers the result cache with an existing invalidation hub.
func WithManager(m *cache.Manager) Option {
	return func(s *DashboardService) { s.manager = m }
}

// WithKnownBusinessTypes replaces the import validation list.
func WithKnownBusinessTypes(labels []string) Option {
	return func(s *DashboardService) { s.known = target.NewKnownSet(labels) }
}

func WithClock(now func() time.Time) Option {
	return func(s *DashboardService) { s.now = now }
}

// DashboardService owns the record set, the target version store and the
// result cache for one session.
type DashboardService struct {
	// mu guards records; Series holds the read lock across a computation so
	// a record swap never races a cache write.
	mu      sync.RWMutex
	records []core.InsuranceRecord

	store     *target.Store
	cache     *cache.ResultCache[kpi.Series]
	manager   *cache.Manager
	calc      kpi.Calculator
	publisher EventPublisher
	known     target.KnownSet
	now       func() time.Time
	logger    *log.Logger
}

func NewDashboardService(store *target.Store, results *cache.ResultCache[kpi.Series], opts ...Option) *DashboardService {
	s := &DashboardService{
		store: store,
		cache: results,
		calc:  kpi.NewCalculator(nil),
		known: target.NewKnownSet(target.DefaultBusinessTypes),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentKPI)
	if s.cache == nil {
		s.cache = cache.NewResultCache[kpi.Series]("kpi_series", nil, cache.WithLogger(s.logger))
	}
	if s.manager == nil {
		s.manager = cache.NewManager(s.logger)
	}
	s.manager.Register(s.cache)
	store.Subscribe(s.onTargetChange)
	return s
}

// SetRecords replaces the record set. Records that fail validation are
// dropped. The result cache is cleared and a data_reloaded event published.
func (s *DashboardService) SetRecords(ctx context.Context, records []core.InsuranceRecord) {
	s.replaceRecords(ctx, records)
	s.publish(ctx, amqp.ReasonDataReloaded, "")
}

// LoadRecords reads the full record set from src and installs it.
func (s *DashboardService) LoadRecords(ctx context.Context, src sources.RecordSource) (int, error) {
	records, err := src.ListRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("load records: %w", err)
	}
	n := s.replaceRecords(ctx, records)
	s.publish(ctx, amqp.ReasonDataReloaded, "")
	return n, nil
}

// ReloadRecords is LoadRecords without the event, for reacting to events
// published elsewhere.
func (s *DashboardService) ReloadRecords(ctx context.Context, src sources.RecordSource) (int, error) {
	records, err := src.ListRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("reload records: %w", err)
	}
	return s.replaceRecords(ctx, records), nil
}

func (s *DashboardService) replaceRecords(ctx context.Context, records []core.InsuranceRecord) int {
	valid := make([]core.InsuranceRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			continue
		}
		valid = append(valid, r)
	}
	if dropped := len(records) - len(valid); dropped > 0 {
		s.logger.WarnContext(ctx, "Dropped invalid records", log.FieldRejectedRows, dropped)
	}

	// Clearing under the write lock keeps a concurrent Series from reading
	// a series computed from the previous record set.
	s.mu.Lock()
	s.records = valid
	s.manager.InvalidateAll(amqp.ReasonDataReloaded)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Records loaded", log.NewFields().WithOperation(log.OpLoad).ToSlice()...)
	s.logger.DebugContext(ctx, "Record set size", log.FieldRecords, len(valid))
	return len(valid)
}

// RecordCount returns the size of the current record set.
func (s *DashboardService) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Series computes the KPI series for the filtered records. Results are
// memoized by fingerprint; the cache is best-effort and never fails a call.
func (s *DashboardService) Series(f filter.Filter, mode kpi.Mode) (kpi.Series, error) {
	mode, err := kpi.ParseMode(string(mode))
	if err != nil {
		return kpi.Series{}, err
	}

	version := s.store.CurrentVersion()
	goal := target.Resolve(f, version.Table())
	key := filter.Fingerprint(f, mode, filter.TargetScope{VersionID: version.ID, Value: goal})

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cache.GetOrCompute(key, func() (kpi.Series, error) {
		start := time.Now()
		filtered := f.Apply(s.records)
		series := s.calc.BuildSeries(filtered, mode, goal)
		fields := log.NewFields().
			WithOperation(log.OpSeries).
			WithComputation(key, string(mode), len(filtered), len(series.Points))
		fields[log.FieldDuration] = time.Since(start).Milliseconds()
		s.logger.Debug("Series computed", fields.ToSlice()...)
		return series, nil
	})
}

// Summary returns the KPIs over all filtered records.
func (s *DashboardService) Summary(f filter.Filter) (core.KPIResult, error) {
	series, err := s.Series(f, kpi.ModeAbsolute)
	if err != nil {
		return core.KPIResult{}, err
	}
	return series.Total, nil
}

// ResolveTarget returns the annual target applicable to f under the
// current version, or nil when none is defined.
func (s *DashboardService) ResolveTarget(f filter.Filter) *float64 {
	return target.Resolve(f, s.store.CurrentTable())
}

// ImportTargets parses a goal CSV and installs it as a new tuned version.
//
// With allowPartial the valid rows are installed even when some rows are
// rejected; the returned id is then accompanied by the *core.ValidationError.
// Without it any rejected row aborts the import.
func (s *DashboardService) ImportTargets(r io.Reader, allowPartial bool) (string, error) {
	rows, err := target.ParseGoalCSV(r, s.known)
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		s.logger.Warn("Goal import rejected rows",
			log.FieldOperation, log.OpImport,
			log.FieldRows, len(rows),
			log.FieldRejectedRows, len(verr.Rows))
		if !allowPartial {
			return "", err
		}
	case err != nil:
		return "", fmt.Errorf("import targets: %w", err)
	}
	if len(rows) == 0 {
		if verr != nil {
			return "", verr
		}
		return "", ErrNoGoalRows
	}

	id, cerr := s.store.CreateTunedVersion(rows, s.now())
	if cerr != nil {
		return "", cerr
	}
	if verr != nil {
		return id, verr
	}
	return id, nil
}

// TuneTargets creates a version with delta added to every current goal.
func (s *DashboardService) TuneTargets(delta decimal.Decimal) (string, error) {
	rows := target.AdjustRows(s.store.CurrentVersion().Rows(), delta)
	return s.store.CreateTunedVersion(rows, s.now())
}

// ExportTargets renders the current version as goal CSV.
func (s *DashboardService) ExportTargets() (string, error) {
	return s.store.ExportCurrentVersionCSV()
}

func (s *DashboardService) SwitchVersion(id string) error {
	return s.store.SwitchVersion(id)
}

func (s *DashboardService) ResetTargets() {
	s.store.Reset()
}

// Versions lists target versions in creation order.
func (s *DashboardService) Versions() []*target.Version {
	return s.store.Versions()
}

func (s *DashboardService) CurrentVersion() *target.Version {
	return s.store.CurrentVersion()
}

// InvalidateCache clears every registered cache without publishing.
func (s *DashboardService) InvalidateCache(reason string) int {
	return s.manager.InvalidateAll(reason)
}

func (s *DashboardService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *DashboardService) onTargetChange(c target.Change) {
	s.manager.InvalidateAll(amqp.ReasonTargetVersionChanged)
	s.logger.Info("Target version changed", log.NewFields().
		WithOperation(string(c.Kind)).
		WithVersion(c.VersionID, "").
		ToSlice()...)
	s.publish(context.Background(), amqp.ReasonTargetVersionChanged, c.VersionID)
}

func (s *DashboardService) publish(ctx context.Context, reason, versionID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishInvalidation(ctx, reason, versionID); err != nil {
		// Local state is already consistent; other processes catch up on the next event.
		s.logger.ErrorContext(ctx, "Failed to publish invalidation",
			log.FieldReason, reason,
			log.FieldVersionID, versionID,
			log.FieldError, err)
	}
}
