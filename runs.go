package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ollamanodes/ui"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent node executions",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		node, _ := cmd.Flags().GetString("node")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := a.journal.Recent(cmd.Context(), node, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.DimStyle.Render("No runs recorded"))
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tNODE\tSTATUS\tMODEL\tDURATION\tREQUEST")
		for _, r := range runs {
			status := r.Status
			if r.Error != "" {
				status += ": " + r.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Node,
				status,
				r.Model,
				r.Duration.Round(time.Millisecond),
				r.RequestID,
			)
		}
		return w.Flush()
	}),
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old entries from the run journal",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		n, err := a.journal.Prune(cmd.Context(), time.Now().Add(-olderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs\n", n)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsPruneCmd)
	runsCmd.Flags().String("node", "", "Only show runs of this node")
	runsCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	runsPruneCmd.Flags().Duration("older-than", 7*24*time.Hour, "Delete runs that started longer ago than this")
}
