package core

// KPIResult holds the metrics computed for a set of records.
// Ratio fields are nil when undefined and must never be read as zero.
type KPIResult struct {
	SignedPremium  float64
	MaturedPremium float64
	LossAmount     float64
	OtherCosts     float64
	RecordCount    int

	LossRatio               *float64
	ContributionMarginRatio *float64
	TargetAchievement       *float64
}

// HasLossRatio reports whether the loss ratio is defined.
func (r KPIResult) HasLossRatio() bool {
	return r.LossRatio != nil
}

// Float returns a pointer to a copy of v.
func Float(v float64) *float64 {
	return &v
}
