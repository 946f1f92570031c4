package target

import (
	"insuralytics/internal/core"
	"insuralytics/internal/filter"
)

// level is one step of the resolution cascade.
type level struct {
	dim        core.Dimension
	selections func(filter.Filter) []string
}

// cascade runs from the narrowest selection to the broadest.
var cascade = []level{
	{core.DimBusinessType, func(f filter.Filter) []string { return f.BusinessTypes }},
	{core.DimOrganization, func(f filter.Filter) []string { return f.Organizations }},
	{core.DimCustomerCategory, func(f filter.Filter) []string { return f.CustomerCategories }},
	{core.DimInsuranceType, func(f filter.Filter) []string { return f.InsuranceTypes }},
}

// Resolve returns the annual target for the filter's selections, or nil.
//
// Levels are tried in order; the first level whose matched targets sum to a
// positive value wins and no other level contributes. An explicit zero
// target counts as "no target" and falls through. When no level matches the
// table's overall target is used if positive.
func Resolve(f filter.Filter, t *Table) *float64 {
	if t == nil {
		return nil
	}
	for _, l := range cascade {
		sel := core.NormalizeAll(l.selections(f))
		if len(sel) == 0 {
			continue
		}
		var sum float64
		for _, s := range sel {
			if v, ok := t.Lookup(l.dim, s); ok {
				sum += v
			}
		}
		if sum > 0 {
			return core.Float(sum)
		}
	}
	if o := t.Overall(); o > 0 {
		return core.Float(o)
	}
	return nil
}
