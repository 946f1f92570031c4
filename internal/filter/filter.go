// Package filter holds the dashboard's current dimension selections and
// derives the cache fingerprint for a computation.
package filter

import (
	"slices"

	"insuralytics/internal/core"
)

// Filter is the set of active selections. Empty slices and zero bounds
// mean "no restriction".
type Filter struct {
	Years    []int
	WeekFrom int
	WeekTo   int

	BusinessTypes      []string
	Organizations      []string
	CustomerCategories []string
	InsuranceTypes     []string
}

// Selections returns the raw selections for a dimension.
func (f Filter) Selections(d core.Dimension) []string {
	switch d {
	case core.DimBusinessType:
		return f.BusinessTypes
	case core.DimOrganization:
		return f.Organizations
	case core.DimCustomerCategory:
		return f.CustomerCategories
	case core.DimInsuranceType:
		return f.InsuranceTypes
	default:
		return nil
	}
}

// Matcher is a compiled Filter for repeated matching.
type Matcher struct {
	years    map[int]struct{}
	weekFrom int
	weekTo   int
	dims     map[core.Dimension]map[string]struct{}
}

// Compile normalizes the selections once. A business-type selection that
// includes core.OverallBusinessType covers every record, so that dimension
// is left unrestricted.
func (f Filter) Compile() *Matcher {
	m := &Matcher{weekFrom: f.WeekFrom, weekTo: f.WeekTo, dims: map[core.Dimension]map[string]struct{}{}}
	if len(f.Years) > 0 {
		m.years = make(map[int]struct{}, len(f.Years))
		for _, y := range f.Years {
			m.years[y] = struct{}{}
		}
	}
	for _, d := range core.AllDimensions {
		sel := core.NormalizeAll(f.Selections(d))
		if len(sel) == 0 {
			continue
		}
		if d == core.DimBusinessType && slices.Contains(sel, core.OverallBusinessType) {
			continue
		}
		set := make(map[string]struct{}, len(sel))
		for _, s := range sel {
			set[s] = struct{}{}
		}
		m.dims[d] = set
	}
	return m
}

// Match reports whether r passes every active selection.
func (m *Matcher) Match(r core.InsuranceRecord) bool {
	if m.years != nil {
		if _, ok := m.years[r.PolicyStartYear]; !ok {
			return false
		}
	}
	if m.weekFrom > 0 && r.WeekNumber < m.weekFrom {
		return false
	}
	if m.weekTo > 0 && r.WeekNumber > m.weekTo {
		return false
	}
	for d, set := range m.dims {
		if _, ok := set[core.Normalize(d.Value(r))]; !ok {
			return false
		}
	}
	return true
}

// Match is a convenience for one-off checks.
func (f Filter) Match(r core.InsuranceRecord) bool {
	return f.Compile().Match(r)
}

// Apply returns the matching records in input order.
func (f Filter) Apply(records []core.InsuranceRecord) []core.InsuranceRecord {
	m := f.Compile()
	out := make([]core.InsuranceRecord, 0, len(records))
	for _, r := range records {
		if m.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
