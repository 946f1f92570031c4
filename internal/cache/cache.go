package cache

import (
	"sync"

	"insuralytics/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Contains reports presence without affecting recency
	Contains(key string) bool

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Clear removes every entry
	Clear()

	// Size returns the current number of items in the cache
	Size() int
}

// Clearer is anything the Manager can invalidate.
type Clearer interface {
	Clear()
}

// Manager fans an invalidation out to every registered cache.
type Manager struct {
	mu     sync.Mutex
	caches []Clearer
	logger *log.Logger
}

// NewManager creates a new cache manager
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		caches: make([]Clearer, 0),
		logger: logger.WithComponent(log.ComponentCache),
	}
}

// Register adds a cache to the manager
func (m *Manager) Register(cache Clearer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, cache)
}

// InvalidateAll clears every registered cache and returns how many were cleared.
func (m *Manager) InvalidateAll(reason string) int {
	m.mu.Lock()
	caches := append([]Clearer(nil), m.caches...)
	m.mu.Unlock()

	for _, c := range caches {
		c.Clear()
	}
	m.logger.Debug("Caches invalidated", log.FieldReason, reason, "count", len(caches))
	return len(caches)
}
