package nodes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"ollamanodes/config"
	"ollamanodes/model"
	"ollamanodes/ollama"
)

// ChatCompletion runs one conversation step against a daemon.
type ChatCompletion struct{ deps Deps }

type chatInputs struct {
	Client       model.ClientConfig `mapstructure:"client"`
	Model        string             `mapstructure:"model"`
	Prompt       string             `mapstructure:"prompt"`
	SystemPrompt string             `mapstructure:"system_prompt"`
	History      model.History      `mapstructure:"history"`
	Options      model.Options      `mapstructure:"options"`
	Format       string             `mapstructure:"format"`
	Image        []byte             `mapstructure:"image"`
}

func (n *ChatCompletion) Spec() Spec {
	return Spec{
		Name:        "OllamaChatCompletion",
		DisplayName: "Ollama Chat Completion",
		Category:    "Ollama",
		Description: "Generate a chat completion with history, system prompt and options.",
		Verb:        "chat",
		Required: []Slot{
			{Name: "client", Type: TypeClient,
				Tooltip: "Ollama client connection from OllamaClient or OllamaModelSelector node"},
			{Name: "model", Type: TypeString, Default: "",
				Tooltip: "Model name to use for generation"},
			{Name: "prompt", Type: TypeString, Default: "", Multiline: true,
				Tooltip: "User prompt or question to send to the model"},
		},
		Optional: []Slot{
			{Name: "system_prompt", Type: TypeString, Default: "", Multiline: true,
				Tooltip: "System instructions, used only when the history is empty"},
			{Name: "history", Type: TypeHistory,
				Tooltip: "Conversation history from previous chat turns"},
			{Name: "options", Type: TypeOptions,
				Tooltip: "Generation parameters like temperature, seed, etc."},
			{Name: "format", Type: TypeString, Default: "none",
				Tooltip: "none for text, json for JSON mode, or a JSON schema object"},
			{Name: "image", Type: TypeImage,
				Tooltip: "PNG image for vision models"},
		},
		Outputs: []Slot{
			{Name: "response", Type: TypeString},
			{Name: "history", Type: TypeHistory},
		},
		Cache: CacheCustom,
	}
}

func (n *ChatCompletion) Validate(in Inputs) error {
	format, _ := in["format"].(string)
	_, err := ollama.FormatParam(format)
	return err
}

// Fingerprint keys a run on all of its inputs, but only when the options
// carry an explicit seed. Without one every run is fresh.
func (n *ChatCompletion) Fingerprint(in Inputs) (string, bool) {
	var args chatInputs
	if err := decodeInputs(in, &args); err != nil {
		return "", false
	}
	if !args.Options.HasSeed() {
		return "", false
	}

	key := struct {
		Endpoint     string         `json:"endpoint"`
		Model        string         `json:"model"`
		Prompt       string         `json:"prompt"`
		SystemPrompt string         `json:"system_prompt"`
		Format       string         `json:"format"`
		Options      map[string]any `json:"options"`
		History      model.History  `json:"history"`
		Image        string         `json:"image,omitempty"`
	}{
		Endpoint:     args.Client.Endpoint,
		Model:        args.Model,
		Prompt:       args.Prompt,
		SystemPrompt: args.SystemPrompt,
		Format:       normalizedFormat(args.Format),
		Options:      args.Options,
		History:      args.History,
	}
	if key.History == nil {
		key.History = model.History{}
	}
	if len(args.Image) > 0 {
		sum := sha256.Sum256(args.Image)
		key.Image = hex.EncodeToString(sum[:])
	}

	data, err := json.Marshal(key)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), true
}

func normalizedFormat(f string) string {
	f = strings.TrimSpace(f)
	if f == "" {
		return "none"
	}
	return f
}

func (n *ChatCompletion) Run(ctx context.Context, in Inputs) (*Result, error) {
	var args chatInputs
	if err := decodeInputs(in, &args); err != nil {
		return nil, err
	}
	if err := args.Client.Validate(); err != nil {
		return nil, err
	}

	outbound := model.BuildConversation(args.History, args.SystemPrompt, args.Prompt, args.Image)
	config.Infof(ctx, "💬 Generating response with %d messages", len(outbound))

	format := normalizedFormat(args.Format)
	if format == "none" {
		format = ""
	}

	res, err := n.deps.Gateway.Chat(ctx, args.Client.Endpoint, model.ChatParams{
		Model:    strings.TrimSpace(args.Model),
		Messages: outbound,
		Options:  args.Options,
		Format:   format,
	})
	if err != nil {
		config.Infof(ctx, "💥 Chat failed: %v", err)
		return nil, err
	}

	reply := model.AssistantMessage(res.Message.Content)
	history := outbound.Append(reply)

	config.Infof(ctx, "✅ Generated response (%d chars)", utf8.RuneCountInString(reply.Content))

	return &Result{
		Outputs: map[string]any{
			"response": reply.Content,
			"history":  history,
		},
	}, nil
}

// ChatOnce is a convenience for hosts that run a single step outside a
// graph. It returns the reply text and the extended history.
func ChatOnce(ctx context.Context, ex *Executor, in Inputs) (string, model.History, error) {
	res, err := ex.Run(ctx, "OllamaChatCompletion", in)
	if err != nil {
		return "", nil, err
	}
	h, ok := res.Outputs["history"].(model.History)
	if !ok {
		return "", nil, fmt.Errorf("chat returned no history")
	}
	return res.String("response"), h, nil
}
