package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"insuralytics/internal/cache"
	"insuralytics/internal/core"
	"insuralytics/internal/kpi"
)

type resultJSON struct {
	SignedPremium           float64  `json:"signed_premium"`
	MaturedPremium          float64  `json:"matured_premium"`
	LossAmount              float64  `json:"loss_amount"`
	OtherCosts              float64  `json:"other_costs"`
	RecordCount             int      `json:"record_count"`
	LossRatio               *float64 `json:"loss_ratio"`
	ContributionMarginRatio *float64 `json:"contribution_margin_ratio"`
	TargetAchievement       *float64 `json:"target_achievement"`
}

type pointJSON struct {
	Period string     `json:"period"`
	Mode   kpi.Mode   `json:"mode"`
	Result resultJSON `json:"result"`
}

type seriesJSON struct {
	Target *float64    `json:"target"`
	Points []pointJSON `json:"points"`
	Total  resultJSON  `json:"total"`
	Cache  cache.Stats `json:"cache"`
}

func toResultJSON(r core.KPIResult) resultJSON {
	return resultJSON{
		SignedPremium:           r.SignedPremium,
		MaturedPremium:          r.MaturedPremium,
		LossAmount:              r.LossAmount,
		OtherCosts:              r.OtherCosts,
		RecordCount:             r.RecordCount,
		LossRatio:               r.LossRatio,
		ContributionMarginRatio: r.ContributionMarginRatio,
		TargetAchievement:       r.TargetAchievement,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeriesJSON(w io.Writer, s kpi.Series, goal *float64, stats cache.Stats) error {
	out := seriesJSON{Target: goal, Total: toResultJSON(s.Total), Cache: stats, Points: make([]pointJSON, len(s.Points))}
	for i, p := range s.Points {
		out.Points[i] = pointJSON{Period: p.Period.String(), Mode: p.Mode, Result: toResultJSON(p.Result)}
	}
	return writeJSON(w, out)
}

func writeSeriesTable(w io.Writer, s kpi.Series) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "period\tmode\trecords\tsigned\tmatured\tloss\tloss ratio\tmargin\tachievement\t")
	for _, p := range s.Points {
		writeRow(tw, p.Period.String(), string(p.Mode), p.Result)
	}
	writeRow(tw, "total", "", s.Total)
	return tw.Flush()
}

func writeSummaryTable(w io.Writer, r core.KPIResult, goal *float64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "records\t%d\n", r.RecordCount)
	fmt.Fprintf(tw, "signed premium\t%s\n", amount(r.SignedPremium))
	fmt.Fprintf(tw, "matured premium\t%s\n", amount(r.MaturedPremium))
	fmt.Fprintf(tw, "loss amount\t%s\n", amount(r.LossAmount))
	fmt.Fprintf(tw, "other costs\t%s\n", amount(r.OtherCosts))
	fmt.Fprintf(tw, "loss ratio\t%s\n", ratio(r.LossRatio))
	fmt.Fprintf(tw, "contribution margin\t%s\n", ratio(r.ContributionMarginRatio))
	fmt.Fprintf(tw, "annual target\t%s\n", optional(goal))
	fmt.Fprintf(tw, "target achievement\t%s\n", ratio(r.TargetAchievement))
	return tw.Flush()
}

func writeRow(w io.Writer, period, mode string, r core.KPIResult) {
	fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
		period, mode, r.RecordCount,
		amount(r.SignedPremium), amount(r.MaturedPremium), amount(r.LossAmount),
		ratio(r.LossRatio), ratio(r.ContributionMarginRatio), ratio(r.TargetAchievement))
}

func printRowErrors(w io.Writer, verr *core.ValidationError) {
	fmt.Fprintf(w, "%d row(s) rejected:\n", len(verr.Rows))
	for _, r := range verr.Rows {
		fmt.Fprintf(w, "  %s\n", r.String())
	}
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ratio renders undefined ratios as "-" so they are never read as zero.
func ratio(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v*100, 'f', 2, 64) + "%"
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
