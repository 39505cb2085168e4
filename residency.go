package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ollamanodes/nodes"
)

var loadCmd = &cobra.Command{
	Use:   "load MODEL",
	Short: "Load a model into daemon memory",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		in := nodes.Inputs{"endpoint": a.cfg.Endpoint, "model": args[0]}
		if cmd.Flags().Changed("keep-alive") {
			keepAlive, _ := cmd.Flags().GetString("keep-alive")
			in["keep_alive"] = keepAlive
		}

		res, err := a.executor.Run(cmd.Context(), "OllamaLoadSelectedModel", in)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.String("result"))
		return nil
	}),
}

var unloadCmd = &cobra.Command{
	Use:   "unload MODEL",
	Short: "Unload a model from daemon memory",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		res, err := a.executor.Run(cmd.Context(), "OllamaUnloadSelectedModel", nodes.Inputs{
			"endpoint": a.cfg.Endpoint,
			"model":    args[0],
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.String("result"))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(loadCmd, unloadCmd)
	loadCmd.Flags().StringP("keep-alive", "k", "", "How long the model stays loaded: -1 forever, 5m, 0 to unload at once")
}
