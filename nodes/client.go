package nodes

import (
	"context"

	"ollamanodes/config"
	"ollamanodes/model"
)

// Client produces the ClientConfig value that carries an endpoint through a
// chain of nodes.
type Client struct{ deps Deps }

type clientInputs struct {
	Endpoint string `mapstructure:"endpoint"`
}

func (n *Client) Spec() Spec {
	return Spec{
		Name:        "OllamaClient",
		DisplayName: "Ollama Client",
		Category:    "Ollama",
		Description: "Connection to an Ollama daemon, shared by downstream nodes.",
		Verb:        "client",
		Required: []Slot{
			{Name: "endpoint", Type: TypeString, Default: n.deps.endpoint()},
		},
		Outputs: []Slot{
			{Name: "client", Type: TypeClient},
		},
		Cache: CacheInputs,
	}
}

func (n *Client) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args clientInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}
	client, err := model.NewClientConfig(args.Endpoint)
	if err != nil {
		return nil, err
	}
	return &Result{Outputs: map[string]any{"client": client}}, nil
}

// ModelSelector pairs a client with a model name and hands both downstream
// together with the endpoint's known model list.
type ModelSelector struct{ deps Deps }

type modelSelectorInputs struct {
	Client  model.ClientConfig `mapstructure:"client"`
	Model   string             `mapstructure:"model"`
	Refresh bool               `mapstructure:"refresh"`
}

func (n *ModelSelector) Spec() Spec {
	return Spec{
		Name:        "OllamaModelSelector",
		DisplayName: "Ollama Model Selector",
		Category:    "Ollama",
		Description: "Select a model for a client, validated against the cached list.",
		Verb:        "select",
		Required: []Slot{
			{Name: "client", Type: TypeClient},
			{Name: "model", Type: TypeString, Default: ""},
		},
		Optional: []Slot{
			{Name: "refresh", Type: TypeBoolean, Default: false,
				Tooltip: "Fetch the model list from the daemon before selecting"},
		},
		Outputs: []Slot{
			{Name: "client", Type: TypeClient},
			{Name: "model", Type: TypeString},
			{Name: "models_json", Type: TypeString},
		},
		Cache: CacheNever,
	}
}

func (n *ModelSelector) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args modelSelectorInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}
	if err := args.Client.Validate(); err != nil {
		return nil, err
	}

	if args.Refresh {
		if _, err := n.deps.Cache.Refresh(ctx, args.Client.Endpoint); err != nil {
			return nil, err
		}
	}

	sel := n.deps.Cache.Select(args.Client, args.Model)
	if sel.Warning != nil {
		config.Infof(ctx, "⚠️  %v", sel.Warning)
	}
	config.Infof(ctx, "🎯 Selected model: '%s' on %s", sel.Model, sel.Client.Endpoint)

	return &Result{
		Outputs: map[string]any{
			"client":      sel.Client,
			"model":       sel.Model,
			"models_json": sel.ModelsJSON,
		},
	}, nil
}
