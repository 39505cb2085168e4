package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ollamanodes/config"
	"ollamanodes/model"
)

// NoModelsReturned is listed in the refresh display when the daemon has no
// models installed. It is never stored in the cache.
const NoModelsReturned = "<no-models-returned>"

const displayRule = "=================================================="

// FormatModelList renders the refresh node's human-readable listing.
func FormatModelList(names []string) string {
	lines := []string{
		displayRule,
		fmt.Sprintf("🤖 Available Ollama Models (%d)", len(names)),
		displayRule,
		"",
	}
	shown := names
	if len(shown) == 0 {
		shown = []string{NoModelsReturned}
	}
	for i, name := range shown {
		lines = append(lines, fmt.Sprintf("%3d. %s", i+1, name))
	}
	lines = append(lines, "", displayRule)
	return strings.Join(lines, "\n")
}

// RefreshModelList fetches the daemon's models and commits them to the cache.
type RefreshModelList struct{ deps Deps }

type refreshInputs struct {
	Endpoint     string `mapstructure:"endpoint"`
	Dependencies any    `mapstructure:"dependencies"`
}

func (n *RefreshModelList) Spec() Spec {
	return Spec{
		Name:        "OllamaRefreshModelList",
		DisplayName: "Ollama (Refresh Model List)",
		Category:    "Ollama",
		Description: "Call Ollama /api/tags and update the model cache for the endpoint.",
		Verb:        "refresh",
		Required: []Slot{
			{Name: "endpoint", Type: TypeString, Default: n.deps.endpoint()},
		},
		Optional: []Slot{
			{Name: "dependencies", Type: TypeAny},
		},
		Outputs: []Slot{
			{Name: "models_json", Type: TypeString},
			{Name: "models_display", Type: TypeString},
			{Name: "dependencies", Type: TypeAny},
		},
		OutputNode: true,
		Cache:      CacheNever,
	}
}

func (n *RefreshModelList) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args refreshInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}
	endpoint := strings.TrimSpace(args.Endpoint)
	if endpoint == "" {
		return nil, model.ErrEmptyEndpoint
	}

	config.Infof(ctx, "🔄 Refreshing model list from %s", endpoint)

	names, err := n.deps.Cache.Refresh(ctx, endpoint)
	if err != nil {
		config.Infof(ctx, "💥 Failed to refresh model list: %v", err)
		return nil, err
	}
	if len(names) == 0 {
		config.Infof(ctx, "⚠️  No models returned from Ollama")
	}

	display := FormatModelList(names)
	config.Infof(ctx, "✅ Model list refreshed: %d models available", len(names))

	return &Result{
		Outputs: map[string]any{
			"models_json":    model.ModelsJSON(names),
			"models_display": display,
			"dependencies":   args.Dependencies,
		},
		Text: []string{display},
	}, nil
}

// applyModelsJSON commits an upstream model list to the cache. Malformed
// input is logged and ignored.
func applyModelsJSON(ctx context.Context, deps Deps, endpoint, raw string) {
	if strings.TrimSpace(raw) == "" || endpoint == "" {
		return
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		config.Infof(ctx, "⚠️  Failed to parse models_json: %s", raw)
		return
	}
	if _, ok := v.([]any); !ok {
		return
	}
	models, err := model.ParseModelsJSON(raw)
	if err != nil {
		config.Infof(ctx, "⚠️  models_json is not a list of names: %v", err)
		return
	}
	deps.Cache.Set(endpoint, models)
	config.Debugf(ctx, "Updated model cache from connected input: %d models", len(models))
}

// SelectModel echoes a model name forward, optionally adopting an upstream
// model list for the last refreshed endpoint.
type SelectModel struct{ deps Deps }

type selectInputs struct {
	Model        string `mapstructure:"model"`
	ModelsJSON   string `mapstructure:"models_json"`
	Dependencies any    `mapstructure:"dependencies"`
}

func (n *SelectModel) Spec() Spec {
	var def string
	if n.deps.Cache != nil {
		if models := n.deps.Cache.Get(n.deps.endpoint()); len(models) > 0 {
			def = models[0]
		}
	}
	return Spec{
		Name:        "OllamaSelectModel",
		DisplayName: "Ollama (Select Model)",
		Category:    "Ollama",
		Description: "Select a model by name or from the refreshed list.",
		Verb:        "select",
		Required: []Slot{
			{Name: "model", Type: TypeString, Default: def},
		},
		Optional: []Slot{
			{Name: "models_json", Type: TypeString, ForceInput: true},
			{Name: "dependencies", Type: TypeAny},
		},
		Outputs: []Slot{
			{Name: "model", Type: TypeString},
			{Name: "dependencies", Type: TypeAny},
		},
		Cache: CacheNever,
	}
}

func (n *SelectModel) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args selectInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}

	endpoint := n.deps.endpoint()
	applyModelsJSON(ctx, n.deps, endpoint, args.ModelsJSON)

	sel := n.deps.Cache.Select(model.ClientConfig{Endpoint: endpoint}, args.Model)
	if sel.Warning != nil {
		config.Infof(ctx, "⚠️  %v", sel.Warning)
	}
	config.Infof(ctx, "🎯 Selected model: '%s'", sel.Model)

	return &Result{
		Outputs: map[string]any{
			"model":        sel.Model,
			"dependencies": args.Dependencies,
		},
	}, nil
}

type residencyInputs struct {
	Endpoint     string             `mapstructure:"endpoint"`
	Model        string             `mapstructure:"model"`
	KeepAlive    string             `mapstructure:"keep_alive"`
	Client       model.ClientConfig `mapstructure:"client"`
	ModelsJSON   string             `mapstructure:"models_json"`
	Dependencies any                `mapstructure:"dependencies"`
}

// target resolves the endpoint: a connected client wins over the text field.
func (r residencyInputs) target() (string, error) {
	if !r.Client.IsZero() {
		return strings.TrimSpace(r.Client.Endpoint), nil
	}
	endpoint := strings.TrimSpace(r.Endpoint)
	if endpoint == "" {
		return "", model.ErrEmptyEndpoint
	}
	return endpoint, nil
}

func residencySlots(deps Deps) []Slot {
	return []Slot{
		{Name: "endpoint", Type: TypeString, Default: deps.endpoint()},
		{Name: "model", Type: TypeString, Default: ""},
	}
}

func residencyOptional() []Slot {
	return []Slot{
		{Name: "client", Type: TypeClient},
		{Name: "models_json", Type: TypeString, ForceInput: true},
		{Name: "dependencies", Type: TypeAny},
	}
}

func ackJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LoadModel makes a model resident in daemon memory.
type LoadModel struct{ deps Deps }

func (n *LoadModel) Spec() Spec {
	required := append(residencySlots(n.deps),
		Slot{Name: "keep_alive", Type: TypeString, Default: n.deps.keepAlive(),
			Tooltip: "How long the model stays loaded: -1 forever, 5m, 0 to unload at once"})
	return Spec{
		Name:        "OllamaLoadSelectedModel",
		DisplayName: "Ollama (Load Selected Model)",
		Category:    "Ollama",
		Description: "Load a model into Ollama's memory.",
		Verb:        "load",
		Required:    required,
		Optional:    residencyOptional(),
		Outputs: []Slot{
			{Name: "result", Type: TypeString},
			{Name: "dependencies", Type: TypeAny},
		},
		Cache: CacheNever,
	}
}

func (n *LoadModel) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args residencyInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}
	endpoint, err := args.target()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(args.Model)
	if name == "" {
		return nil, fmt.Errorf("model name is empty")
	}

	config.Infof(ctx, "🚀 Loading model '%s' from %s", name, endpoint)

	ack, err := n.deps.Gateway.LoadModel(ctx, endpoint, name, args.KeepAlive)
	if err != nil {
		config.Infof(ctx, "💥 Failed to load model '%s': %v", name, err)
		return nil, err
	}
	config.Infof(ctx, "✅ Model '%s' loaded successfully", name)
	applyModelsJSON(ctx, n.deps, endpoint, args.ModelsJSON)

	return &Result{
		Outputs: map[string]any{
			"result":       ackJSON(ack),
			"dependencies": args.Dependencies,
		},
	}, nil
}

// UnloadModel evicts a model from daemon memory.
type UnloadModel struct{ deps Deps }

func (n *UnloadModel) Spec() Spec {
	return Spec{
		Name:        "OllamaUnloadSelectedModel",
		DisplayName: "Ollama (Unload Selected Model)",
		Category:    "Ollama",
		Description: "Unload a model from Ollama's memory (keep_alive=0).",
		Verb:        "unload",
		Required:    residencySlots(n.deps),
		Optional:    residencyOptional(),
		Outputs: []Slot{
			{Name: "result", Type: TypeString},
			{Name: "dependencies", Type: TypeAny},
		},
		Cache: CacheNever,
	}
}

func (n *UnloadModel) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args residencyInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}
	endpoint, err := args.target()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(args.Model)
	if name == "" {
		return nil, fmt.Errorf("model name is empty")
	}

	config.Infof(ctx, "🗑️  Unloading model '%s' from %s", name, endpoint)

	ack, err := n.deps.Gateway.UnloadModel(ctx, endpoint, name)
	if err != nil {
		config.Infof(ctx, "💥 Failed to unload model '%s': %v", name, err)
		return nil, err
	}
	config.Infof(ctx, "✅ Model '%s' unloaded successfully", name)
	applyModelsJSON(ctx, n.deps, endpoint, args.ModelsJSON)

	return &Result{
		Outputs: map[string]any{
			"result":       ackJSON(ack),
			"dependencies": args.Dependencies,
		},
	}, nil
}
