package nodes

import (
	"context"
	"errors"

	"ollamanodes/config"
	"ollamanodes/model"
)

var errNoHistoryStore = errors.New("history storage is not configured")

// SaveHistory persists a history under a name so a later run can resume it.
type SaveHistory struct{ deps Deps }

type saveHistoryInputs struct {
	History model.History `mapstructure:"history"`
	Name    string        `mapstructure:"name"`
}

func (n *SaveHistory) Spec() Spec {
	return Spec{
		Name:        "OllamaSaveHistory",
		DisplayName: "Ollama History: Save",
		Category:    "Ollama/History",
		Description: "Save a conversation history by name, replacing any earlier one.",
		Verb:        "history",
		Required: []Slot{
			{Name: "history", Type: TypeHistory},
			{Name: "name", Type: TypeString, Default: "default"},
		},
		Outputs: []Slot{
			{Name: "history", Type: TypeHistory},
			{Name: "id", Type: TypeString},
		},
		OutputNode: true,
		Cache:      CacheNever,
	}
}

func (n *SaveHistory) Run(ctx context.Context, in Inputs) (*Result, error) {
	if n.deps.Histories == nil {
		return nil, errNoHistoryStore
	}
	var args saveHistoryInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}

	saved, err := n.deps.Histories.SaveNamed(args.Name, args.History)
	if err != nil {
		return nil, err
	}
	config.Infof(ctx, "💾 Saved history '%s' (%d messages)", saved.Name, len(saved.Messages))

	return &Result{
		Outputs: map[string]any{
			"history": args.History,
			"id":      saved.ID,
		},
	}, nil
}

// LoadHistory reads a saved history by name or id.
type LoadHistory struct{ deps Deps }

type loadHistoryInputs struct {
	Name string `mapstructure:"name"`
}

func (n *LoadHistory) Spec() Spec {
	return Spec{
		Name:        "OllamaLoadHistory",
		DisplayName: "Ollama History: Load",
		Category:    "Ollama/History",
		Description: "Load a saved conversation history by name or id.",
		Verb:        "history",
		Required: []Slot{
			{Name: "name", Type: TypeString, Default: "default"},
		},
		Outputs: []Slot{
			{Name: "history", Type: TypeHistory},
		},
		Cache: CacheNever,
	}
}

func (n *LoadHistory) Run(ctx context.Context, in Inputs) (*Result, error) {
	if n.deps.Histories == nil {
		return nil, errNoHistoryStore
	}
	var args loadHistoryInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}

	saved, err := n.deps.Histories.Resolve(args.Name)
	if err != nil {
		return nil, err
	}
	config.Infof(ctx, "📂 Loaded history '%s' (%d messages)", saved.Name, len(saved.Messages))

	return &Result{Outputs: map[string]any{"history": saved.Messages}}, nil
}
