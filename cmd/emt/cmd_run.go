package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"emt"
	"emt/config"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run scenarios (all configured scenarios when none given)",
		Long: `Run one or more scenarios. Each scenario writes a one-point snapshot,
a full snapshot and a results file to the output directory.

A failing scenario does not stop the others; the command exits non-zero
after all scenarios have been attempted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, args)
		},
	}
	cmd.Flags().String("mode", "", "Initialization mode: fresh, resume")
	cmd.Flags().Float64("tlen", 0, "Simulated duration in seconds")
	cmd.Flags().String("net-mode", "", "Network solve mode: lu, gonum")
	cmd.Flags().Int("parallel", 0, "Number of scenarios run concurrently")
	cmd.Flags().String("load-model", "", "Override the initial load model: constant-impedance, constant-power")
	return cmd
}

func runScenarios(cmd *cobra.Command, names []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	results, err := emt.Simulate(cfg, names, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%-12s FAILED  %v\n", r.Scenario, r.Err)
			continue
		}
		fmt.Fprintf(out, "%-12s ok      %d saved  %s\n", r.Scenario, r.Record.Len(), r.Elapsed.Round(time.Millisecond))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Lookup("mode") == nil {
		return nil
	}
	if flags.Changed("mode") {
		cfg.Simulation.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("tlen") {
		cfg.Simulation.TLen, _ = flags.GetFloat64("tlen")
	}
	if flags.Changed("net-mode") {
		cfg.Simulation.NetMode, _ = flags.GetString("net-mode")
	}
	if flags.Changed("parallel") {
		cfg.Simulation.Parallel, _ = flags.GetInt("parallel")
	}
	if flags.Changed("load-model") {
		cfg.Simulation.LoadModel, _ = flags.GetString("load-model")
	}
	return cfg.Validate()
}
