package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"emt"
	"emt/metrics"
)

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [scenario...]",
		Short: "Extract per-scenario metrics from results files",
		Long: `Compute mean, min, max, std, nadir depth, maximum rate of change and
settling time for each scenario and write them as CSV to the output directory.
Scenarios without a results file are reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			sum, err := emt.Metrics(cfg, args, log)
			if err != nil {
				return err
			}
			for _, s := range sum.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", s.Scenario, s.Err)
			}
			return metrics.WriteTable(cmd.OutOrStdout(), sum.Rows)
		},
	}
}
