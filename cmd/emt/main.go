// Command emt 运行电磁暂态仿真场景并汇总结果。
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"emt/config"
	"emt/logging"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "emt",
		Short: "EMT power system simulation",
		Long: `emt runs electromagnetic-transient scenarios on a multi-machine network
with synchronous generators, inverter-based resources and dynamic loads.

Without a subcommand, all configured scenarios run in order.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, nil)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json")
	rootCmd.PersistentFlags().String("output", "", "Output directory for snapshots and results")
	rootCmd.PersistentFlags().Int("system", 0, "Network size identifier")
	rootCmd.PersistentFlags().Float64("ts", 0, "Timestep in seconds")

	rootCmd.AddCommand(
		newRunCmd(),
		newMetricsCmd(),
		newPlotCmd(),
		newHistoryCmd(),
	)
	return rootCmd
}

// setup 加载配置并套用命令行参数，返回配置与日志
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("output") {
		cfg.Simulation.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("system") {
		cfg.Simulation.SystemN, _ = flags.GetInt("system")
	}
	if flags.Changed("ts") {
		cfg.Simulation.TS, _ = flags.GetFloat64("ts")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr()), nil
}
