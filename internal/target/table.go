// Package target manages annual premium targets: the target tables, the
// priority cascade that picks the target for a selection, CSV import and
// export, and the versioned store of tuned tables.
package target

import (
	"github.com/shopspring/decimal"

	"insuralytics/internal/core"
)

// GoalRow is one annual target, in units of ten thousand (万).
type GoalRow struct {
	Dimension core.Dimension
	Label     string
	Target    decimal.Decimal
}

// Table maps normalized dimension labels to annual targets. It is read-only
// once built.
type Table struct {
	entries map[core.Dimension]map[string]float64
	overall float64
}

// NewTable builds a table from rows. Rows with the same normalized label
// are summed. The overall scalar is the 车险整体 row when present,
// otherwise the sum of all business-type rows.
func NewTable(rows []GoalRow) *Table {
	t := &Table{entries: make(map[core.Dimension]map[string]float64, len(core.AllDimensions))}
	var (
		btSum      float64
		hasOverall bool
	)
	for _, r := range rows {
		label := core.Normalize(r.Label)
		if label == "" {
			continue
		}
		v := r.Target.InexactFloat64()
		m, ok := t.entries[r.Dimension]
		if !ok {
			m = make(map[string]float64)
			t.entries[r.Dimension] = m
		}
		m[label] += v
		if r.Dimension != core.DimBusinessType {
			continue
		}
		if label == core.OverallBusinessType {
			hasOverall = true
			continue
		}
		btSum += v
	}
	if hasOverall {
		t.overall = t.entries[core.DimBusinessType][core.OverallBusinessType]
	} else {
		t.overall = btSum
	}
	return t
}

// Lookup returns the target for a label under a dimension.
func (t *Table) Lookup(d core.Dimension, label string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t.entries[d][core.Normalize(label)]
	return v, ok
}

// Overall returns the company-wide target.
func (t *Table) Overall() float64 {
	if t == nil {
		return 0
	}
	return t.overall
}

// Len returns the number of labels under a dimension.
func (t *Table) Len(d core.Dimension) int {
	if t == nil {
		return 0
	}
	return len(t.entries[d])
}
