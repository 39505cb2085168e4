package main

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ollamanodes/nodes"
	"ollamanodes/ui"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Refresh and list the models installed on the daemon",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		res, err := a.executor.Run(cmd.Context(), "OllamaRefreshModelList", nodes.Inputs{"endpoint": a.cfg.Endpoint})
		if err != nil {
			return err
		}
		if asJSON {
			fmt.Fprintln(cmd.OutOrStdout(), res.String("models_json"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(res.Text, "\n"))
		return nil
	}),
}

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose a model interactively",
	Long: `Refreshes the model list, shows a filterable picker and prints the chosen
model. With --load the chosen model is also loaded.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		current, _ := cmd.Flags().GetString("model")
		load, _ := cmd.Flags().GetBool("load")
		ctx := cmd.Context()

		dropdowns := ui.NewTerminalAdapter(io.Discard)
		a.executor.Subscribe(ui.NewDropdownListener(dropdowns))

		const nodeID = "pick"
		if _, err := a.executor.Execute(ctx, nodes.Request{
			NodeID: nodeID,
			Node:   "OllamaModelSelector",
			Inputs: nodes.Inputs{"client": a.cfg.Endpoint, "model": current, "refresh": true},
		}); err != nil {
			return err
		}

		spec, _ := dropdowns.Last(nodeID)
		name, ok, err := ui.RunPicker("Select Model", spec, tea.WithAltScreen(), tea.WithContext(ctx))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.WarningStyle.Render("No model selected"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)

		if load {
			_, err := a.executor.Run(ctx, "OllamaLoadSelectedModel", nodes.Inputs{
				"endpoint": a.cfg.Endpoint,
				"model":    name,
			})
			return err
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(modelsCmd, pickCmd)

	modelsCmd.Flags().Bool("json", false, "Print the list as JSON")

	pickCmd.Flags().StringP("model", "m", "", "Model to preselect")
	pickCmd.Flags().Bool("load", false, "Load the chosen model")
}
