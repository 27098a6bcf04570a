// Package main runs the built-in report card comparisons against the
// configured model provider and prints each verdict as JSON.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Protocol-Lattice/report-card-validator/src/config"
	"github.com/Protocol-Lattice/report-card-validator/src/reportcard"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report-card-validator",
		Short: "Compare pairs of report card PDFs with a hosted model",
		Long: `report-card-validator sends pairs of report card PDFs to a hosted model and
prints its verdict for each pair: whether both belong to the same student,
whether they are duplicates, and whether each is a complete, consistent report
card.

Configuration comes from the environment (a .env file is loaded when present)
or report-card-validator.yaml:

  REPORT_VALIDATOR_PROVIDER   gemini (default), anthropic or dummy
  REPORT_VALIDATOR_MODEL      model name for the provider
  REPORT_VALIDATOR_LOG_LEVEL  logrus level, logs go to stderr
  GOOGLE_API_KEY              credential for gemini
  ANTHROPIC_API_KEY           credential for anthropic`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := cfg.Logger()
			logger.SetOutput(cmd.ErrOrStderr())

			scenarios, err := resolveScenarios(defaultScenarios)
			if err != nil {
				return err
			}

			v := reportcard.NewValidator(cfg, reportcard.WithLogger(logger))
			return runScenarios(cmd.Context(), cmd.OutOrStdout(), v, scenarios)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
