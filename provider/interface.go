// Package provider adapts the Ollama wire client to the endpoint-scoped
// model.Gateway used by nodes and the model cache.
//
// Nodes never hold a long-lived client. Every call names the endpoint it is
// aimed at, because a workflow may talk to several daemons and the endpoint
// travels between nodes inside a model.ClientConfig value.
//
// # Type Conversions
//
// The provider layer handles all conversions between the node-facing types in
// package model and the daemon's api types. See conversions.go:
//   - ConvertToOllamaMessages / ConvertFromOllamaMessage
//
// # Architecture
//
//   - model.Gateway defines the contract (interface)
//   - provider.OllamaGateway implements it on top of ollama.Client
//   - provider.NewGateway() builds the gateway from application config
//   - provider/testutil.MockGateway is the test double
//
// # Usage
//
//	gw := provider.NewGateway(cfg, nil)
//	names, err := gw.ListModels(ctx, "http://localhost:11434")
//	if errors.Is(err, ollama.ErrRemoteUnavailable) {
//	    // daemon not running
//	}
package provider

import "time"

// Observer receives one notification per daemon call.
type Observer interface {
	ObserveGatewayCall(op, endpoint string, err error, elapsed time.Duration)
}

// Gateway operation names reported to the Observer.
const (
	OpListModels  = "list_models"
	OpLoadModel   = "load_model"
	OpUnloadModel = "unload_model"
	OpChat        = "chat"
	OpPing        = "ping"
)
