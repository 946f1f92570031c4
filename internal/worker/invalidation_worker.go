package worker

import (
	"context"
	"fmt"
	"log/slog"

	"insuralytics/internal/amqp"
	"insuralytics/internal/sources"
)

// Dashboard is the part of the dashboard service the worker drives.
type Dashboard interface {
	ReloadRecords(ctx context.Context, src sources.RecordSource) (int, error)
	InvalidateCache(reason string) int
}

// InvalidationWorker keeps a process's cached results in step with events
// published by other processes.
type InvalidationWorker struct {
	dashboard Dashboard
	records   sources.RecordSource
}

func NewInvalidationWorker(dashboard Dashboard, records sources.RecordSource) *InvalidationWorker {
	return &InvalidationWorker{
		dashboard: dashboard,
		records:   records,
	}
}

// HandleMessage processes a single invalidation message from AMQP.
// A returned error requeues the message.
func (w *InvalidationWorker) HandleMessage(ctx context.Context, msg *amqp.InvalidationMessage) error {
	slog.InfoContext(ctx, "Processing invalidation message",
		"reason", msg.Reason,
		"version_id", msg.VersionID,
		"timestamp", msg.Timestamp)

	switch msg.Reason {
	case amqp.ReasonDataReloaded:
		if w.records == nil {
			slog.WarnContext(ctx, "No record source configured, clearing cache only")
			w.dashboard.InvalidateCache(msg.Reason)
			return nil
		}
		n, err := w.dashboard.ReloadRecords(ctx, w.records)
		if err != nil {
			return fmt.Errorf("reload records: %w", err)
		}
		slog.InfoContext(ctx, "Records reloaded", "records", n)
	case amqp.ReasonTargetVersionChanged:
		cleared := w.dashboard.InvalidateCache(msg.Reason)
		slog.InfoContext(ctx, "Result caches cleared", "caches", cleared, "version_id", msg.VersionID)
	default:
		return fmt.Errorf("%w: %q", amqp.ErrUnknownReason, msg.Reason)
	}
	return nil
}

// Run consumes messages from c until ctx is cancelled.
func (w *InvalidationWorker) Run(ctx context.Context, c Consumer) error {
	return c.ConsumeInvalidations(ctx, func(msg *amqp.InvalidationMessage) error {
		return w.HandleMessage(ctx, msg)
	})
}

// Consumer delivers invalidation messages; *amqp.Client implements it.
type Consumer interface {
	ConsumeInvalidations(ctx context.Context, handler func(*amqp.InvalidationMessage) error) error
}
