package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ollamanodes/cache"
	"ollamanodes/config"
	"ollamanodes/metrics"
	"ollamanodes/nodes"
	"ollamanodes/provider"
	"ollamanodes/storage"
	"ollamanodes/ui"
)

var rootCmd = &cobra.Command{
	Use:   "ollama-nodes",
	Short: "Ollama model management and chat nodes",
	Long: `ollama-nodes drives a set of Ollama nodes (refresh, select, load, unload,
chat, options, history) from the command line, over HTTP, or as MCP tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error: ")+err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config.toml (default ~/.config/ollama-nodes/config.toml)")
	rootCmd.PersistentFlags().StringP("endpoint", "e", "", "Ollama endpoint (overrides config)")
}

// app holds everything a command needs, wired from configuration.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	gateway   *provider.OllamaGateway
	cache     *cache.ModelCache
	histories *storage.HistoryStorage
	journal   *storage.RunJournal
	executor  *nodes.Executor
}

func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(config.ExpandPath(configPath))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
		cfg.Endpoint = endpoint
	}

	config.InitDebugLog(cfg.DataDir())

	m := metrics.New()
	gw := provider.NewGateway(cfg, m)
	c := cache.New(gw)
	if err := m.WatchCache(c); err != nil {
		return nil, fmt.Errorf("failed to register cache metrics: %w", err)
	}

	histories, err := storage.NewHistoryStorage(cfg.DataDir())
	if err != nil {
		return nil, err
	}
	journal, err := storage.NewRunJournal(cfg.DataDir())
	if err != nil {
		return nil, err
	}

	registry := nodes.NewDefaultRegistry(nodes.Deps{
		Gateway:          gw,
		Cache:            c,
		Histories:        histories,
		DefaultEndpoint:  cfg.Endpoint,
		DefaultKeepAlive: cfg.DefaultKeepAlive,
	})

	return &app{
		cfg:       cfg,
		metrics:   m,
		gateway:   gw,
		cache:     c,
		histories: histories,
		journal:   journal,
		executor:  nodes.NewExecutor(registry, nodes.WithJournal(journal), nodes.WithObserver(m)),
	}, nil
}

func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		config.Debugf(context.Background(), "closing journal: %v", err)
	}
}

// withApp wraps a command body with app setup and teardown.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ollama-nodes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ollama-nodes version %s (%s)\n", Version, License)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
