package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCmd(state *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print today's visitor statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := state.svc.Stats.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METRIC\tVALUE")
			fmt.Fprintf(w, "total visitors\t%d\n", snapshot.TotalVisitors)
			fmt.Fprintf(w, "entries today\t%d\n", snapshot.DailyEntries)
			fmt.Fprintf(w, "exits today\t%d\n", snapshot.DailyExits)
			fmt.Fprintf(w, "inside now\t%d\n", snapshot.Inside)
			fmt.Fprintf(w, "generated at\t%s\n", snapshot.GeneratedAt.Format(time.RFC3339))
			return w.Flush()
		},
	}
}
