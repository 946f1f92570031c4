package main

import (
	"github.com/spf13/cobra"

	"insuralytics/internal/filter"
	"insuralytics/internal/kpi"
)

func newSeriesCmd(root *rootOptions) *cobra.Command {
	var (
		f    filter.Filter
		mode string
	)

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print the weekly KPI series for the selected records",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := kpi.ParseMode(mode)
			if err != nil {
				return err
			}
			session, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer session.Cleanup()

			series, err := session.Service.Series(f, m)
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return writeSeriesJSON(cmd.OutOrStdout(), series, session.Service.ResolveTarget(f), session.Service.CacheStats())
			}
			return writeSeriesTable(cmd.OutOrStdout(), series)
		},
	}

	bindFilterFlags(cmd.Flags(), &f)
	cmd.Flags().StringVar(&mode, "mode", string(kpi.ModeAbsolute), "absolute or increment")
	return cmd
}

func newSummaryCmd(root *rootOptions) *cobra.Command {
	var f filter.Filter

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print KPIs over all selected records",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer session.Cleanup()

			total, err := session.Service.Summary(f)
			if err != nil {
				return err
			}
			goal := session.Service.ResolveTarget(f)
			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), struct {
					Target *float64   `json:"target"`
					Result resultJSON `json:"result"`
				}{goal, toResultJSON(total)})
			}
			return writeSummaryTable(cmd.OutOrStdout(), total, goal)
		},
	}

	bindFilterFlags(cmd.Flags(), &f)
	return cmd
}
