package main

import (
	"github.com/spf13/cobra"

	"ollamanodes/config"
	"ollamanodes/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the model list route, node runs and metrics over HTTP",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		ctx := cmd.Context()

		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = a.cfg.ListenAddr
		}

		// A daemon that is down at startup is not fatal; the first request
		// will try again.
		if err := a.cache.RefreshAll(ctx, a.cfg.Endpoints()); err != nil {
			config.Debugf(ctx, "serve: warm-up incomplete: %v", err)
		}

		h := server.NewHandler(server.Options{
			Cache:           a.cache,
			Pinger:          a.gateway,
			Executor:        a.executor,
			Metrics:         a.metrics.Handler(),
			DefaultEndpoint: a.cfg.Endpoint,
		})

		config.Infof(ctx, "🌐 Listening on %s (endpoint %s)", addr, a.cfg.Endpoint)
		return server.ListenAndServe(ctx, addr, h)
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config, 127.0.0.1:8189)")
}
