package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"insuralytics/internal/core"
	"insuralytics/internal/target"
)

func newTargetsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Validate, export and tune annual goal versions",
	}
	cmd.AddCommand(
		newTargetsValidateCmd(),
		newTargetsExportCmd(root),
		newTargetsTuneCmd(root),
	)
	return cmd
}

func newTargetsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a goal CSV without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open goal file: %w", err)
			}
			defer f.Close()

			rows, err := target.ParseGoalCSV(f, target.NewKnownSet(target.DefaultBusinessTypes))
			var verr *core.ValidationError
			if errors.As(err, &verr) {
				printRowErrors(cmd.ErrOrStderr(), verr)
			} else if err != nil {
				return err
			}
			table := target.NewTable(rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d valid row(s), overall target %s\n",
				len(rows), decimal.NewFromFloat(table.Overall()).String())
			return err
		},
	}
}

func newTargetsExportCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current goal version as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer session.Cleanup()

			out, err := session.Service.ExportTargets()
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newTargetsTuneCmd(root *rootOptions) *cobra.Command {
	var (
		delta  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Add a delta to every goal and export the tuned version",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := decimal.NewFromString(delta)
			if err != nil {
				return fmt.Errorf("invalid --delta %q: %w", delta, err)
			}
			session, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer session.Cleanup()

			before := session.Service.CurrentVersion().Table().Overall()
			if _, err := session.Service.TuneTargets(d); err != nil {
				return err
			}
			v := session.Service.CurrentVersion()
			fmt.Fprintf(cmd.ErrOrStderr(), "version %s (%s): overall %v -> %v\n",
				v.Name, v.ID, before, v.Table().Overall())

			out, err := session.Service.ExportTargets()
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().StringVar(&delta, "delta", "0", "Amount added to every goal (negative values clamp at zero)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func writeOutput(stdout io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
