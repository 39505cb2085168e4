package main

import (
	"github.com/spf13/cobra"

	"ollamanodes/config"
	mcpserver "ollamanodes/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the nodes as MCP tools over stdio",
	Long: `Serves the curated Ollama tools and one tool per node on stdin/stdout so
MCP clients can list, load and chat with local models.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		s := mcpserver.NewServer(a.executor, Version, a.cfg.Endpoint)
		config.Infof(cmd.Context(), "🔌 Serving %d MCP tools on stdio", len(s.Tools()))
		return s.ServeStdio()
	}),
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
