package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"ollamanodes/model"
	"ollamanodes/storage"
	"ollamanodes/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved conversation histories",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved histories, newest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		list, err := a.histories.List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.DimStyle.Render("No saved histories"))
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMODEL\tMESSAGES\tUPDATED")
		for _, meta := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				shortID(meta.ID),
				runewidth.Truncate(meta.Name, 32, "..."),
				meta.Model,
				meta.MessageCount,
				meta.UpdatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	}),
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID|NAME",
	Short: "Print a saved history",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		h, err := a.histories.Resolve(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.TitleStyle.Render(h.Name))
		fmt.Fprintln(cmd.OutOrStdout(), model.FormatHistory(h.Messages))
		return nil
	}),
}

var historySearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search message text across saved histories",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		matches, err := storage.NewSearchIndex(a.histories).Search(args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.DimStyle.Render("No matches found"))
			return nil
		}

		out := cmd.OutOrStdout()
		for _, m := range matches {
			fmt.Fprintf(out, "%s %s\n",
				ui.HighlightStyle.Render(m.HistoryName),
				ui.DimStyle.Render(fmt.Sprintf("#%d %s", m.MessageIndex+1, m.Role)),
			)
			fmt.Fprintf(out, "    %s\n", m.Preview)
		}
		return nil
	}),
}

var historyExportCmd = &cobra.Command{
	Use:   "export ID|NAME",
	Short: "Export a saved history to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			h, err := a.histories.Resolve(args[0])
			if err != nil {
				return err
			}
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			path = storage.GenerateExportPath(dir, h.Name)
		}

		if err := a.histories.ExportToJSON(args[0], path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.SelectedStyle.Render("Exported to "+path))
		return nil
	}),
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete ID|NAME",
	Short: "Delete a saved history",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		h, err := a.histories.Resolve(args[0])
		if err != nil {
			return err
		}
		if err := a.histories.Delete(h.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%d messages)\n", h.Name, len(h.Messages))
		return nil
	}),
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historySearchCmd, historyExportCmd, historyDeleteCmd)
	historyExportCmd.Flags().StringP("out", "o", "", "Output file (default ./ollama-history-<name>-<timestamp>.json)")
}
