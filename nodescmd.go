package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ollamanodes/nodes"
	"ollamanodes/ui"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the available nodes",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		fmt.Fprint(cmd.OutOrStdout(), renderNodeList(a.executor.Registry().Specs(), verbose))
		return nil
	}),
}

var nodesRunCmd = &cobra.Command{
	Use:   "run NODE [slot=value...]",
	Short: "Run a single node",
	Long: `Runs NODE with inputs given as slot=value pairs. Values are parsed as JSON
when possible (numbers, booleans, arrays, objects) and taken as text otherwise.

  ollama-nodes nodes run OllamaOptionTemperature temperature=0.3
  ollama-nodes nodes run "Ollama Client" endpoint=http://gpu-box:11434`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		in, err := parseSlotArgs(args[1:])
		if err != nil {
			return err
		}
		nodeID, _ := cmd.Flags().GetString("node-id")

		res, err := a.executor.Execute(cmd.Context(), nodes.Request{NodeID: nodeID, Node: args[0], Inputs: in})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, text := range res.Text {
			fmt.Fprintln(out, text)
		}
		data, err := json.MarshalIndent(res.Outputs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode outputs: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}),
}

// parseSlotArgs turns slot=value pairs into node inputs.
func parseSlotArgs(args []string) (nodes.Inputs, error) {
	in := nodes.Inputs{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q, expected slot=value", arg)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			in[key] = v
		} else {
			in[key] = raw
		}
	}
	return in, nil
}

func renderNodeList(specs []nodes.Spec, verbose bool) string {
	var b strings.Builder
	category := ""
	for _, spec := range specs {
		if spec.Category != category {
			if category != "" {
				b.WriteString("\n")
			}
			category = spec.Category
			b.WriteString(ui.TitleStyle.Render(category) + "\n")
		}
		fmt.Fprintf(&b, "  %s %s\n", ui.HighlightStyle.Render(spec.Name), ui.DimStyle.Render("("+spec.DisplayName+")"))
		if !verbose {
			continue
		}
		fmt.Fprintf(&b, "      %s\n", spec.Description)
		for _, slot := range spec.Required {
			fmt.Fprintf(&b, "      in   %-14s %s%s\n", slot.Name, slot.Type, defaultSuffix(slot))
		}
		for _, slot := range spec.Optional {
			fmt.Fprintf(&b, "      opt  %-14s %s\n", slot.Name, slot.Type)
		}
		for _, slot := range spec.Outputs {
			fmt.Fprintf(&b, "      out  %-14s %s\n", slot.Name, slot.Type)
		}
	}
	return b.String()
}

func defaultSuffix(slot nodes.Slot) string {
	if slot.Default == nil {
		return ""
	}
	return fmt.Sprintf(" = %v", slot.Default)
}

func init() {
	rootCmd.AddCommand(nodesCmd)
	nodesCmd.AddCommand(nodesRunCmd)

	nodesCmd.Flags().BoolP("verbose", "v", false, "Show slots and descriptions")
	nodesRunCmd.Flags().String("node-id", "", "Node instance id reported to listeners and the journal")
}
