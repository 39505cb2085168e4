package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// Timeouts bound individual daemon calls. Zero disables the deadline.
type Timeouts struct {
	List   time.Duration
	Load   time.Duration
	Unload time.Duration
	Chat   time.Duration
}

// Client talks to one daemon endpoint.
type Client struct {
	client   *api.Client
	endpoint string
	timeouts Timeouts
}

type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	timeouts   Timeouts
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

func WithTimeouts(t Timeouts) Option {
	return func(o *clientOptions) { o.timeouts = t }
}

func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("ollama endpoint is empty")
	}

	o := clientOptions{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}

	parsedURL, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Ollama URL %q: scheme and host are required", endpoint)
	}

	return &Client{
		client:   api.NewClient(parsedURL, o.httpClient),
		endpoint: endpoint,
		timeouts: o.timeouts,
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

type ModelInfo struct {
	Name       string
	Size       int64
	Digest     string
	ModifiedAt time.Time
}

// Ack is the daemon's answer to a load or unload request.
type Ack struct {
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	Done       bool      `json:"done"`
	DoneReason string    `json:"done_reason,omitempty"`
}

type ChatRequest struct {
	Model    string
	Messages []api.Message
	Options  map[string]any
	// Format is "", "none", "json", or a JSON schema object literal.
	Format string
}

type ChatResponse struct {
	Model      string
	Message    api.Message
	DoneReason string
	EvalCount  int
	Duration   time.Duration
}

func (c *Client) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// ListModels returns the models installed on the daemon (GET /api/tags).
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := c.withTimeout(ctx, c.timeouts.List)
	defer cancel()

	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, wrapError("list models", c.endpoint, err)
	}

	models := make([]ModelInfo, len(resp.Models))
	for i, m := range resp.Models {
		models[i] = ModelInfo{
			Name:       m.Name,
			Size:       m.Size,
			Digest:     m.Digest,
			ModifiedAt: m.ModifiedAt,
		}
	}

	return models, nil
}

// LoadModel asks the daemon to make model resident. An empty prompt on
// /api/generate loads without generating.
//
// keepAlive is parsed into the request's duration field first, so a value
// that is neither a number nor a Go duration ("forever") fails locally with
// ErrInvalidKeepAlive instead of reaching the daemon as RemoteRejected.
func (c *Client) LoadModel(ctx context.Context, model, keepAlive string) (*Ack, error) {
	ka, err := ParseKeepAlive(keepAlive)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx, c.timeouts.Load)
	defer cancel()

	return c.generate(ctx, "load model", &api.GenerateRequest{
		Model:     model,
		Prompt:    "",
		KeepAlive: ka,
		Stream:    boolPtr(false),
	})
}

// UnloadModel evicts model from daemon memory (keep_alive=0).
func (c *Client) UnloadModel(ctx context.Context, model string) (*Ack, error) {
	ctx, cancel := c.withTimeout(ctx, c.timeouts.Unload)
	defer cancel()

	return c.generate(ctx, "unload model", &api.GenerateRequest{
		Model:     model,
		KeepAlive: &api.Duration{Duration: 0},
		Stream:    boolPtr(false),
	})
}

func (c *Client) generate(ctx context.Context, op string, req *api.GenerateRequest) (*Ack, error) {
	var ack *Ack
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		ack = &Ack{
			Model:      resp.Model,
			CreatedAt:  resp.CreatedAt,
			Done:       resp.Done,
			DoneReason: resp.DoneReason,
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(op, c.endpoint, err)
	}
	if ack == nil {
		ack = &Ack{Model: req.Model}
	}
	return ack, nil
}

// Chat sends a non-streaming chat completion (POST /api/chat).
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	format, err := FormatParam(req.Format)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx, c.timeouts.Chat)
	defer cancel()

	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Options:  req.Options,
		Format:   format,
		Stream:   boolPtr(false),
	}

	var out *ChatResponse
	err = c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		if out == nil {
			out = &ChatResponse{Model: resp.Model}
		}
		// Concatenate in case the daemon streams despite stream=false.
		out.Message.Role = resp.Message.Role
		out.Message.Content += resp.Message.Content
		if resp.Done {
			out.DoneReason = resp.DoneReason
			out.EvalCount = resp.EvalCount
			out.Duration = resp.TotalDuration
		}
		return nil
	})
	if err != nil {
		return nil, wrapError("chat", c.endpoint, err)
	}
	if out == nil {
		out = &ChatResponse{Model: req.Model, Message: api.Message{Role: "assistant"}}
	}
	if out.Message.Role == "" {
		out.Message.Role = "assistant"
	}
	return out, nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return wrapError("ping", c.endpoint, c.client.Heartbeat(ctx))
}

// FormatParam maps the node's format choice to the daemon's format field.
// "json" asks for JSON mode; an object literal is sent as a schema.
func FormatParam(format string) (json.RawMessage, error) {
	format = strings.TrimSpace(format)
	switch {
	case format == "" || format == "none":
		return nil, nil
	case format == "json":
		return json.RawMessage(`"json"`), nil
	case strings.HasPrefix(format, "{"):
		if !json.Valid([]byte(format)) {
			return nil, fmt.Errorf("invalid format schema: not valid JSON")
		}
		return json.RawMessage(format), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want none, json, or a JSON schema)", format)
	}
}

func boolPtr(b bool) *bool { return &b }
