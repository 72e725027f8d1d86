package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"emt"
	"emt/report"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [scenario...]",
		Short: "Render trajectories as an HTML page and metric signal images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			serve, _ := cmd.Flags().GetString("serve")

			results := emt.LoadResults(cfg, args, log)
			if len(results) == 0 {
				return fmt.Errorf("no results found in %s", cfg.Simulation.OutputDir)
			}
			files, err := emt.Plot(cfg, results, format)
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			if err != nil {
				return err
			}
			if serve == "" {
				return nil
			}
			log.Info("serving trajectories", "addr", serve)
			return http.ListenAndServe(serve, &report.Page{Results: results})
		},
	}
	cmd.Flags().String("format", "png", "Signal image format: png, svg, pdf")
	cmd.Flags().String("serve", "", "Serve the trajectory page on this address")
	return cmd
}
