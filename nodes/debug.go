package nodes

import (
	"context"

	"ollamanodes/config"
	"ollamanodes/model"
)

type historyInput struct {
	History model.History `mapstructure:"history"`
}

// DebugHistory renders a history as readable text.
type DebugHistory struct{}

func (n *DebugHistory) Spec() Spec {
	return Spec{
		Name:        "OllamaDebugHistory",
		DisplayName: "Ollama Debug: History",
		Category:    "Ollama/Debug",
		Description: "Inspect conversation history as formatted text.",
		Verb:        "debug",
		Required: []Slot{
			{Name: "history", Type: TypeHistory, Tooltip: "Conversation history to inspect"},
		},
		Outputs: []Slot{
			{Name: "formatted_history", Type: TypeString},
		},
		OutputNode: true,
		Cache:      CacheInputs,
	}
}

func (n *DebugHistory) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args historyInput
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}
	formatted := model.FormatHistory(args.History)
	config.Debugf(ctx, "Formatted history: %d messages", len(args.History))
	return &Result{
		Outputs: map[string]any{"formatted_history": formatted},
		Text:    []string{formatted},
	}, nil
}

// HistoryLength counts the messages in a history.
type HistoryLength struct{}

func (n *HistoryLength) Spec() Spec {
	return Spec{
		Name:        "OllamaHistoryLength",
		DisplayName: "Ollama Debug: History Length",
		Category:    "Ollama/Debug",
		Description: "Number of messages in a conversation history.",
		Verb:        "debug",
		Required: []Slot{
			{Name: "history", Type: TypeHistory, Tooltip: "Conversation history to count"},
		},
		Outputs: []Slot{
			{Name: "length", Type: TypeInt},
		},
		Cache: CacheInputs,
	}
}

func (n *HistoryLength) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args historyInput
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}
	return &Result{Outputs: map[string]any{"length": args.History.Len()}}, nil
}
