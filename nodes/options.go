package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"ollamanodes/model"
)

// optionNode sets one generation option on top of an optional upstream set.
type optionNode struct {
	name        string
	displayName string
	description string
	key         string
	slot        Slot
	integer     bool
}

type optionInputs struct {
	Value   float64       `mapstructure:"value"`
	Options model.Options `mapstructure:"options"`
}

func (n *optionNode) Spec() Spec {
	slot := n.slot
	slot.Name = n.key
	return Spec{
		Name:        n.name,
		DisplayName: n.displayName,
		Category:    "Ollama/Options",
		Description: n.description,
		Verb:        "option",
		Required:    []Slot{slot},
		Optional: []Slot{
			{Name: "options", Type: TypeOptions, Tooltip: "Other options to merge with"},
		},
		Outputs: []Slot{
			{Name: "options", Type: TypeOptions},
		},
		Cache: CacheInputs,
	}
}

func (n *optionNode) Run(ctx context.Context, in Inputs) (*Result, error) {
	raw := Inputs{"value": in[n.key], "options": in["options"]}
	var args optionInputs
	if err := decodeInputs(raw, &args); err != nil {
		return nil, err
	}

	var value any = args.Value
	if n.integer {
		if args.Value != math.Trunc(args.Value) {
			return nil, fmt.Errorf("%s must be a whole number, got %v", n.key, args.Value)
		}
		value = int64(args.Value)
	}

	return &Result{
		Outputs: map[string]any{"options": args.Options.With(n.key, value)},
	}, nil
}

func newOptionNodes() []Node {
	return []Node{
		&optionNode{
			name:        "OllamaOptionTemperature",
			displayName: "Ollama Option: Temperature",
			description: "Randomness of sampling: 0 is deterministic, 0.8 balanced, 2 very creative.",
			key:         model.OptTemperature,
			slot:        Slot{Type: TypeFloat, Default: 0.8, Min: floatPtr(0), Max: floatPtr(2)},
		},
		&optionNode{
			name:        "OllamaOptionSeed",
			displayName: "Ollama Option: Seed",
			description: "Fixed seed for reproducible generation. A seeded chat is memoized.",
			key:         model.OptSeed,
			slot:        Slot{Type: TypeInt, Default: 42, Min: floatPtr(0), Max: floatPtr(math.MaxInt32)},
			integer:     true,
		},
		&optionNode{
			name:        "OllamaOptionMaxTokens",
			displayName: "Ollama Option: Max Tokens",
			description: "Maximum number of tokens to generate (num_predict).",
			key:         model.OptNumPredict,
			slot:        Slot{Type: TypeInt, Default: 128, Min: floatPtr(1), Max: floatPtr(4096)},
			integer:     true,
		},
		&optionNode{
			name:        "OllamaOptionTopP",
			displayName: "Ollama Option: Top P",
			description: "Nucleus sampling: consider tokens within this cumulative probability.",
			key:         model.OptTopP,
			slot:        Slot{Type: TypeFloat, Default: 0.9, Min: floatPtr(0), Max: floatPtr(1)},
		},
		&optionNode{
			name:        "OllamaOptionTopK",
			displayName: "Ollama Option: Top K",
			description: "Consider only the K most likely tokens.",
			key:         model.OptTopK,
			slot:        Slot{Type: TypeInt, Default: 40, Min: floatPtr(1), Max: floatPtr(100)},
			integer:     true,
		},
		&optionNode{
			name:        "OllamaOptionRepeatPenalty",
			displayName: "Ollama Option: Repeat Penalty",
			description: "Penalize repeated tokens: 1.0 is no penalty.",
			key:         model.OptRepeatPenalty,
			slot:        Slot{Type: TypeFloat, Default: 1.1, Min: floatPtr(0), Max: floatPtr(2)},
		},
		&ExtraBody{},
	}
}

// ExtraBody merges arbitrary daemon options given as a JSON object, such as
// {"num_ctx": 4096, "stop": ["END"]}.
type ExtraBody struct{}

type extraBodyInputs struct {
	ExtraBody string        `mapstructure:"extra_body"`
	Options   model.Options `mapstructure:"options"`
}

func (n *ExtraBody) Spec() Spec {
	return Spec{
		Name:        "OllamaOptionExtraBody",
		DisplayName: "Ollama Option: Extra Body",
		Category:    "Ollama/Options",
		Description: "Advanced Ollama parameters as a JSON object (num_ctx, num_gpu, stop, mirostat...).",
		Verb:        "option",
		Required: []Slot{
			{Name: "extra_body", Type: TypeString, Default: "{}", Multiline: true,
				Tooltip: "JSON object with additional Ollama parameters"},
		},
		Optional: []Slot{
			{Name: "options", Type: TypeOptions, Tooltip: "Other options to merge with"},
		},
		Outputs: []Slot{
			{Name: "options", Type: TypeOptions},
		},
		Cache: CacheInputs,
	}
}

func (n *ExtraBody) Validate(in Inputs) error {
	raw, _ := in["extra_body"].(string)
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fmt.Errorf("invalid JSON in extra_body: %w", err)
	}
	return nil
}

func (n *ExtraBody) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args extraBodyInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}
	merged, err := args.Options.MergeJSON(args.ExtraBody)
	if err != nil {
		return nil, err
	}
	return &Result{Outputs: map[string]any{"options": merged}}, nil
}

// optionOrder is the order RunOptionChain applies values in.
var optionOrder = []struct{ key, node string }{
	{model.OptTemperature, "OllamaOptionTemperature"},
	{model.OptSeed, "OllamaOptionSeed"},
	{model.OptNumPredict, "OllamaOptionMaxTokens"},
	{model.OptTopP, "OllamaOptionTopP"},
	{model.OptTopK, "OllamaOptionTopK"},
	{model.OptRepeatPenalty, "OllamaOptionRepeatPenalty"},
}

// RunOptionChain builds an options set for hosts without a graph by feeding
// values through the option nodes, so bounds and whole-number checks apply
// as they would when the nodes are wired by hand. Keys are option names
// such as "temperature". extraBody may be empty.
func RunOptionChain(ctx context.Context, ex *Executor, values map[string]float64, extraBody string) (model.Options, error) {
	for key := range values {
		if !knownOption(key) {
			return nil, fmt.Errorf("unknown option %q", key)
		}
	}

	opts := model.Options{}
	for _, o := range optionOrder {
		v, ok := values[o.key]
		if !ok {
			continue
		}
		res, err := ex.Run(ctx, o.node, Inputs{o.key: v, "options": opts})
		if err != nil {
			return nil, err
		}
		opts, _ = res.Outputs["options"].(model.Options)
	}

	if extraBody != "" {
		res, err := ex.Run(ctx, "OllamaOptionExtraBody", Inputs{"extra_body": extraBody, "options": opts})
		if err != nil {
			return nil, err
		}
		opts, _ = res.Outputs["options"].(model.Options)
	}
	return opts, nil
}

func knownOption(key string) bool {
	for _, o := range optionOrder {
		if o.key == key {
			return true
		}
	}
	return false
}
