package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"emt/catalog"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [scenario]",
		Short: "List recorded runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")
			scenario := ""
			if len(args) == 1 {
				scenario = args[0]
			}

			path := cfg.CatalogPath()
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded (%s does not exist).\n", path)
				return nil
			}
			cat, err := catalog.Open(path)
			if err != nil {
				return err
			}
			defer cat.Close()
			runs, err := cat.History(context.Background(), scenario, limit)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FINISHED\tSCENARIO\tSYSTEM\tTS\tTLEN\tMODE\tSAVED\tELAPSED\tSTATUS")
			for _, r := range runs {
				status := r.Status
				if r.Error != "" {
					status += ": " + r.Error
				}
				fmt.Fprintf(tw, "%s\t%s\tS%d\t%g\t%g\t%s\t%d\t%s\t%s\n",
					r.Finished.Local().Format(time.DateTime), r.Scenario, r.SystemN, r.TS, r.TLen, r.Mode, r.Saved, r.Elapsed, status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs (0 for all)")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}
