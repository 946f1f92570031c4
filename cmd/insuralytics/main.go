package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"insuralytics/internal/amqp"
	"insuralytics/internal/cli"
	"insuralytics/internal/core"
	"insuralytics/internal/log"
)

type rootOptions struct {
	targetsFile  string
	allowPartial bool
	jsonOutput   bool
	logLevel     string
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "insuralytics",
		Short:         "Weekly insurance KPI series and annual target tuning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.targetsFile, "targets", "", "Goal CSV installed as a tuned version before computing")
	cmd.PersistentFlags().BoolVar(&opts.allowPartial, "allow-partial", false, "Install the valid rows of a goal CSV that has rejected rows")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Write JSON instead of a table")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	cmd.AddCommand(
		newSeriesCmd(opts),
		newSummaryCmd(opts),
		newTargetsCmd(opts),
	)
	return cmd
}

// openSession builds a dashboard session from the environment and applies
// --targets when given.
func openSession(cmd *cobra.Command, opts *rootOptions) (*cli.Session, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := cli.SetupLogger(cmd.ErrOrStderr(), level).WithComponent(log.ComponentCLI)

	var sopts cli.SessionOptions
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, invalidation events disabled", log.FieldError, err)
		} else {
			sopts.Publisher = publisher
		}
	}

	session, err := cli.NewSession(cmd.Context(), cfg, logger, sopts)
	if err != nil {
		if publisher != nil {
			publisher.Close()
		}
		return nil, err
	}
	if publisher != nil {
		cleanup := session.Cleanup
		session.Cleanup = func() error {
			return errors.Join(publisher.Close(), cleanup())
		}
	}

	if opts.targetsFile != "" {
		if err := importTargets(session, opts.targetsFile, opts.allowPartial, cmd); err != nil {
			session.Cleanup()
			return nil, err
		}
	}
	return session, nil
}

func importTargets(session *cli.Session, path string, allowPartial bool, cmd *cobra.Command) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	id, err := session.Service.ImportTargets(f, allowPartial)
	var verr *core.ValidationError
	if errors.As(err, &verr) && id != "" {
		printRowErrors(cmd.ErrOrStderr(), verr)
		return nil
	}
	return err
}
