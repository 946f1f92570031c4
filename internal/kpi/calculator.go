package kpi

import "insuralytics/internal/core"

// CostRule returns the costs other than losses charged against matured premium.
type CostRule func(records []core.InsuranceRecord, matured, loss float64) float64

// NoOtherCosts charges nothing beyond losses.
func NoOtherCosts(_ []core.InsuranceRecord, _, _ float64) float64 {
	return 0
}

// ExpenseRatio charges a fixed share of matured premium.
func ExpenseRatio(ratio float64) CostRule {
	return func(_ []core.InsuranceRecord, matured, _ float64) float64 {
		return matured * ratio
	}
}

// Calculator computes KPI results. The zero value charges no other costs.
type Calculator struct {
	Cost CostRule
}

// NewCalculator returns a calculator using rule, or NoOtherCosts when nil.
func NewCalculator(rule CostRule) Calculator {
	return Calculator{Cost: rule}
}

func (c Calculator) costs(records []core.InsuranceRecord, matured, loss float64) float64 {
	if c.Cost == nil {
		return 0
	}
	return c.Cost(records, matured, loss)
}

// Calculate sums the records and derives ratios.
// target is the annual target scope; nil or zero leaves achievement undefined.
func (c Calculator) Calculate(records []core.InsuranceRecord, target *float64) core.KPIResult {
	var res core.KPIResult
	for _, r := range records {
		res.SignedPremium += r.SignedPremium
		res.MaturedPremium += r.MaturedPremium
		res.LossAmount += r.LossAmount
	}
	res.RecordCount = len(records)
	res.OtherCosts = c.costs(records, res.MaturedPremium, res.LossAmount)
	deriveRatios(&res, target)
	return res
}

// CalculateIncrement computes current minus previous.
// Ratios are rebuilt from the differenced numerators and denominators.
func (c Calculator) CalculateIncrement(current, previous []core.InsuranceRecord, target *float64) core.KPIResult {
	cur := c.Calculate(current, nil)
	prev := c.Calculate(previous, nil)
	res := core.KPIResult{
		SignedPremium:  cur.SignedPremium - prev.SignedPremium,
		MaturedPremium: cur.MaturedPremium - prev.MaturedPremium,
		LossAmount:     cur.LossAmount - prev.LossAmount,
		OtherCosts:     cur.OtherCosts - prev.OtherCosts,
		RecordCount:    cur.RecordCount,
	}
	deriveRatios(&res, target)
	return res
}

func deriveRatios(res *core.KPIResult, target *float64) {
	res.LossRatio = nil
	res.ContributionMarginRatio = nil
	res.TargetAchievement = nil
	if res.MaturedPremium > 0 {
		res.LossRatio = core.Float(res.LossAmount / res.MaturedPremium)
		res.ContributionMarginRatio = core.Float((res.MaturedPremium - res.LossAmount - res.OtherCosts) / res.MaturedPremium)
	}
	if target != nil && *target != 0 {
		res.TargetAchievement = core.Float(res.SignedPremium / *target)
	}
}
