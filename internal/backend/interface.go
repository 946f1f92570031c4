package backend

import (
	"context"

	"insuralytics/internal/cache"
	"insuralytics/internal/kpi"
	"insuralytics/internal/sources"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Backend bundles the adapters a dashboard session runs on.
type Backend struct {
	Records sources.RecordSource
	Writer  sources.RecordWriter
	Goals   sources.GoalSource
	// Cache is the result cache backend; nil selects the in-memory LRU.
	Cache cache.Cache[kpi.Series]
}

// BackendResult contains the backend and a cleanup function that releases
// every resource it opened.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
