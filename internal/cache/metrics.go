package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports cache counters to Prometheus, labelled by cache name.
type Metrics struct {
	hits    *prometheus.CounterVec
	misses  *prometheus.CounterVec
	clears  *prometheus.CounterVec
	entries *entriesCollector
}

// entriesCollector reports cache sizes when scraped, so writes never pay
// for a size query against a remote backend.
type entriesCollector struct {
	desc   *prometheus.Desc
	mu     sync.Mutex
	sizers map[string]func() int
}

func (e *entriesCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.desc
}

func (e *entriesCollector) Collect(ch chan<- prometheus.Metric) {
	e.mu.Lock()
	sizers := make(map[string]func() int, len(e.sizers))
	for name, fn := range e.sizers {
		sizers[name] = fn
	}
	e.mu.Unlock()

	for name, fn := range sizers {
		ch <- prometheus.MustNewConstMetric(e.desc, prometheus.GaugeValue, float64(fn()), name)
	}
}

// NewMetrics creates the collectors and registers them on reg when non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insuralytics",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Result cache lookups served from the cache.",
		}, []string{"cache"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insuralytics",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Result cache lookups that required a computation.",
		}, []string{"cache"}),
		clears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insuralytics",
			Subsystem: "cache",
			Name:      "clears_total",
			Help:      "Result cache invalidations.",
		}, []string{"cache"}),
		entries: &entriesCollector{
			desc: prometheus.NewDesc(
				prometheus.BuildFQName("insuralytics", "cache", "entries"),
				"Entries currently held by the result cache.",
				[]string{"cache"}, nil),
			sizers: make(map[string]func() int),
		},
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.hits, m.misses, m.clears, m.entries} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) hit(name string) {
	if m != nil {
		m.hits.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) miss(name string) {
	if m != nil {
		m.misses.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) cleared(name string) {
	if m != nil {
		m.clears.WithLabelValues(name).Inc()
	}
}

// track registers the size function reported for name at scrape time.
func (m *Metrics) track(name string, size func() int) {
	if m == nil {
		return
	}
	m.entries.mu.Lock()
	m.entries.sizers[name] = size
	m.entries.mu.Unlock()
}
