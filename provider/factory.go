package provider

import (
	"net/http"

	"ollamanodes/config"
	"ollamanodes/ollama"
)

// NewGateway creates the daemon gateway from application configuration.
//
// This is the centralized factory used by the CLI, the HTTP server and the
// MCP server so that every surface applies the same per-operation timeouts.
//
// Example:
//
//	cfg, _ := config.Load()
//	gw := provider.NewGateway(cfg, metrics.New())
func NewGateway(cfg *config.Config, observer Observer) *OllamaGateway {
	return NewOllamaGateway(&http.Client{}, TimeoutsFromConfig(cfg), observer)
}

// TimeoutsFromConfig maps configured timeouts onto the wire client's.
// A nil config yields no deadlines.
func TimeoutsFromConfig(cfg *config.Config) ollama.Timeouts {
	if cfg == nil {
		return ollama.Timeouts{}
	}
	return ollama.Timeouts{
		List:   cfg.Timeouts.List,
		Load:   cfg.Timeouts.Load,
		Unload: cfg.Timeouts.Unload,
		Chat:   cfg.Timeouts.Chat,
	}
}
