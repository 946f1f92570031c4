// Package kpi groups insurance records into weekly periods and computes
// premium, loss and margin metrics over them.
package kpi

import (
	"sort"

	"insuralytics/internal/core"
)

// Grouping is a total partition of a record set by (year, week).
type Grouping struct {
	buckets map[core.PeriodKey][]core.InsuranceRecord
	keys    []core.PeriodKey
}

// Group buckets records by policy start year and week number.
// Records keep their input order inside each bucket.
func Group(records []core.InsuranceRecord) *Grouping {
	g := &Grouping{buckets: make(map[core.PeriodKey][]core.InsuranceRecord)}
	for _, r := range records {
		k := r.Period()
		if _, ok := g.buckets[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.buckets[k] = append(g.buckets[k], r)
	}
	sort.Slice(g.keys, func(i, j int) bool { return g.keys[i].Less(g.keys[j]) })
	return g
}

// Keys returns the periods in chronological order.
func (g *Grouping) Keys() []core.PeriodKey {
	return append([]core.PeriodKey(nil), g.keys...)
}

// Records returns the bucket for k, or nil.
func (g *Grouping) Records(k core.PeriodKey) []core.InsuranceRecord {
	return g.buckets[k]
}

// Len is the number of periods.
func (g *Grouping) Len() int {
	return len(g.keys)
}

// Total is the number of records across all buckets.
func (g *Grouping) Total() int {
	n := 0
	for _, b := range g.buckets {
		n += len(b)
	}
	return n
}
