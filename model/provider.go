package model

import (
	"context"
	"strings"

	"ollamanodes/ollama"
)

// Gateway reaches a daemon identified by its endpoint on every call.
//
// This interface is defined in the model package (not provider package) so
// that nodes and cache can depend on it without importing provider.
type Gateway interface {
	// ListModels returns the names of models installed on the daemon.
	ListModels(ctx context.Context, endpoint string) ([]string, error)

	// LoadModel makes a model resident; keepAlive is passed to the daemon as-is
	// when it is a number or a duration, otherwise the call fails with
	// ollama.ErrInvalidKeepAlive before reaching the daemon.
	LoadModel(ctx context.Context, endpoint, model, keepAlive string) (*ollama.Ack, error)

	// UnloadModel evicts a model from daemon memory.
	UnloadModel(ctx context.Context, endpoint, model string) (*ollama.Ack, error)

	// Chat runs one non-streaming chat completion.
	Chat(ctx context.Context, endpoint string, params ChatParams) (*ChatResult, error)

	// Ping checks if the daemon is reachable.
	Ping(ctx context.Context, endpoint string) error
}

type ChatParams struct {
	Model    string
	Messages History
	Options  Options
	Format   string
}

type ChatResult struct {
	Model      string
	Message    Message
	DoneReason string
	EvalCount  int
}

// BuildConversation assembles the outbound message sequence for one chat
// step: the system prompt (only when the history is empty), then the prior
// history, then the new user message. Prompts are trimmed.
func BuildConversation(history History, systemPrompt, prompt string, images ...[]byte) History {
	var lead []Message
	if sp := strings.TrimSpace(systemPrompt); sp != "" && len(history) == 0 {
		lead = append(lead, SystemMessage(sp))
	}
	var imgs [][]byte
	for _, img := range images {
		if len(img) > 0 {
			imgs = append(imgs, img)
		}
	}
	return History(lead).Append(history...).Append(UserMessage(strings.TrimSpace(prompt), imgs...))
}
