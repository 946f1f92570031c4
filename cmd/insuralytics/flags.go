package main

import (
	"github.com/spf13/pflag"

	"insuralytics/internal/filter"
)

// bindFilterFlags registers the dimension selection flags on fs.
func bindFilterFlags(fs *pflag.FlagSet, f *filter.Filter) {
	fs.IntSliceVar(&f.Years, "year", nil, "Policy start years to include (repeatable)")
	fs.IntVar(&f.WeekFrom, "week-from", 0, "First week to include")
	fs.IntVar(&f.WeekTo, "week-to", 0, "Last week to include")
	fs.StringSliceVar(&f.BusinessTypes, "business-type", nil, "Business types to include")
	fs.StringSliceVar(&f.Organizations, "org", nil, "Third-level organizations to include")
	fs.StringSliceVar(&f.CustomerCategories, "customer-category", nil, "Customer categories to include")
	fs.StringSliceVar(&f.InsuranceTypes, "insurance-type", nil, "Insurance types to include")
}
