package sources

import (
	"context"

	"insuralytics/internal/core"
	"insuralytics/internal/target"
)

// Ports for inbound data adapters.
type (
	// RecordSource supplies the full record set for a computation session.
	RecordSource interface {
		ListRecords(ctx context.Context) ([]core.InsuranceRecord, error)
	}

	// GoalSource supplies the baseline annual goals that seed the version store.
	GoalSource interface {
		ReadGoals(ctx context.Context) ([]target.GoalRow, error)
	}

	// RecordWriter persists records, replacing whatever was stored before.
	RecordWriter interface {
		ReplaceRecords(ctx context.Context, records []core.InsuranceRecord) error
	}
)
