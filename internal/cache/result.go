package cache

import (
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"insuralytics/internal/log"
)

// Stats is a snapshot of a ResultCache's counters.
type Stats struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Entries int     `json:"entries"`
}

// ResultOption configures a ResultCache.
type ResultOption func(*resultConfig)

type resultConfig struct {
	metrics *Metrics
	logger  *log.Logger
}

// WithMetrics reports hits and misses to m.
func WithMetrics(m *Metrics) ResultOption {
	return func(c *resultConfig) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ResultOption {
	return func(c *resultConfig) { c.logger = l }
}

// ResultCache memoizes computed results by fingerprint and counts hits and
// misses. Entries never expire; callers clear it when inputs change.
type ResultCache[T any] struct {
	name    string
	backend Cache[T]
	hits    atomic.Int64
	misses  atomic.Int64
	group   singleflight.Group
	metrics *Metrics
	logger  *log.Logger
}

// NewResultCache wraps backend. A nil backend gets an unbounded LRU.
func NewResultCache[T any](name string, backend Cache[T], opts ...ResultOption) *ResultCache[T] {
	cfg := resultConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Discard()
	}
	if backend == nil {
		backend = NewLRUCache[T](0)
	}
	c := &ResultCache[T]{
		name:    name,
		backend: backend,
		metrics: cfg.metrics,
		logger:  cfg.logger.WithComponent(log.ComponentCache),
	}
	c.metrics.track(name, c.Size)
	return c
}

// Name returns the cache name used in metrics and logs.
func (c *ResultCache[T]) Name() string {
	return c.name
}

// Get returns the cached value and counts a hit, or counts a miss.
func (c *ResultCache[T]) Get(key string) (T, bool) {
	v, ok := c.backend.Get(key)
	if ok {
		c.hits.Add(1)
		c.metrics.hit(c.name)
	} else {
		c.misses.Add(1)
		c.metrics.miss(c.name)
	}
	return v, ok
}

// Has reports presence without touching the counters.
func (c *ResultCache[T]) Has(key string) bool {
	return c.backend.Contains(key)
}

// Set stores value under key.
func (c *ResultCache[T]) Set(key string, value T) {
	c.backend.Set(key, value)
}

// Delete removes key.
func (c *ResultCache[T]) Delete(key string) {
	c.backend.Delete(key)
}

// Clear drops every entry. Counters are kept.
func (c *ResultCache[T]) Clear() {
	c.backend.Clear()
	c.metrics.cleared(c.name)
	c.logger.Debug("Result cache cleared", log.FieldCacheName, c.name)
}

// Size returns the number of cached entries.
func (c *ResultCache[T]) Size() int {
	return c.backend.Size()
}

// Hits returns the number of lookups served from the cache.
func (c *ResultCache[T]) Hits() int64 {
	return c.hits.Load()
}

// Misses returns the number of lookups that found nothing.
func (c *ResultCache[T]) Misses() int64 {
	return c.misses.Load()
}

// HitRate returns hits/(hits+misses) as a percentage, 0 before any lookup.
func (c *ResultCache[T]) HitRate() float64 {
	h, m := c.hits.Load(), c.misses.Load()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m) * 100
}

// Stats returns a snapshot of the counters.
func (c *ResultCache[T]) Stats() Stats {
	return Stats{
		Name:    c.name,
		Hits:    c.Hits(),
		Misses:  c.Misses(),
		HitRate: c.HitRate(),
		Entries: c.Size(),
	}
}

// ResetStats zeroes the counters.
func (c *ResultCache[T]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// GetOrCompute returns the cached value for key or computes and stores it.
// Concurrent callers for the same key share one computation. A failed
// computation is not cached.
func (c *ResultCache[T]) GetOrCompute(key string, compute func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	res, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have stored it while we waited.
		if c.backend.Contains(key) {
			if v, ok := c.backend.Get(key); ok {
				return v, nil
			}
		}
		v, err := compute()
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
