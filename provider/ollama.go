package provider

import (
	"context"
	"net/http"
	"time"

	"ollamanodes/config"
	"ollamanodes/model"
	"ollamanodes/ollama"
)

// OllamaGateway implements model.Gateway by dialing an ollama.Client for the
// endpoint named in each call.
//
// Clients are cheap (a parsed URL and a shared *http.Client), so no
// per-endpoint client pool is kept.
type OllamaGateway struct {
	httpClient *http.Client
	timeouts   ollama.Timeouts
	observer   Observer
}

var _ model.Gateway = (*OllamaGateway)(nil)

// NewOllamaGateway creates a gateway.
//
// Parameters:
//   - httpClient: transport for every daemon call; nil means http.DefaultClient.
//   - timeouts: per-operation deadlines; zero fields disable the deadline.
//   - observer: optional call observer (metrics); may be nil.
//
// Example:
//
//	gw := NewOllamaGateway(nil, ollama.Timeouts{List: 20 * time.Second}, nil)
//	names, err := gw.ListModels(ctx, "http://localhost:11434")
func NewOllamaGateway(httpClient *http.Client, timeouts ollama.Timeouts, observer Observer) *OllamaGateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaGateway{
		httpClient: httpClient,
		timeouts:   timeouts,
		observer:   observer,
	}
}

func (g *OllamaGateway) client(endpoint string) (*ollama.Client, error) {
	return ollama.NewClient(endpoint,
		ollama.WithHTTPClient(g.httpClient),
		ollama.WithTimeouts(g.timeouts),
	)
}

func (g *OllamaGateway) observe(op, endpoint string, start time.Time, err error) {
	if g.observer != nil {
		g.observer.ObserveGatewayCall(op, endpoint, err, time.Since(start))
	}
}

// ListModels implements model.Gateway.ListModels.
//
// Only names are returned, in daemon order. Sizes and digests are dropped
// because nodes exchange plain name lists.
func (g *OllamaGateway) ListModels(ctx context.Context, endpoint string) (names []string, err error) {
	start := time.Now()
	defer func() { g.observe(OpListModels, endpoint, start, err) }()

	c, err := g.client(endpoint)
	if err != nil {
		return nil, err
	}

	config.Debugf(ctx, "🔍 Fetching models from %s/api/tags", c.Endpoint())
	infos, err := c.ListModels(ctx)
	if err != nil {
		config.Debugf(ctx, "❌ Failed to fetch models from %s: %v", endpoint, err)
		return nil, err
	}

	names = make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	config.Debugf(ctx, "✅ Found %d models", len(names))
	config.Debugf(ctx, "Models: %v", names)
	return names, nil
}

// LoadModel implements model.Gateway.LoadModel.
//
// keepAlive is forwarded to the daemon untouched in meaning: "-1" keeps the
// model resident indefinitely, "5m" for five minutes, "0" unloads right away.
// Values the daemon's duration type cannot hold fail with
// ollama.ErrInvalidKeepAlive and no request is made.
func (g *OllamaGateway) LoadModel(ctx context.Context, endpoint, name, keepAlive string) (ack *ollama.Ack, err error) {
	start := time.Now()
	defer func() { g.observe(OpLoadModel, endpoint, start, err) }()

	c, err := g.client(endpoint)
	if err != nil {
		return nil, err
	}

	config.Debugf(ctx, "⬇️  Loading model '%s' (keep_alive=%s)", name, keepAlive)
	ack, err = c.LoadModel(ctx, name, keepAlive)
	if err != nil {
		config.Debugf(ctx, "❌ Failed to load model '%s': %v", name, err)
		return nil, err
	}
	config.Debugf(ctx, "✅ Model '%s' loaded successfully", name)
	return ack, nil
}

// UnloadModel implements model.Gateway.UnloadModel.
func (g *OllamaGateway) UnloadModel(ctx context.Context, endpoint, name string) (ack *ollama.Ack, err error) {
	start := time.Now()
	defer func() { g.observe(OpUnloadModel, endpoint, start, err) }()

	c, err := g.client(endpoint)
	if err != nil {
		return nil, err
	}

	config.Debugf(ctx, "⬆️  Unloading model '%s'", name)
	ack, err = c.UnloadModel(ctx, name)
	if err != nil {
		config.Debugf(ctx, "❌ Failed to unload model '%s': %v", name, err)
		return nil, err
	}
	config.Debugf(ctx, "✅ Model '%s' unloaded successfully", name)
	return ack, nil
}

// Chat implements model.Gateway.Chat with type conversions.
//
// The conversation is converted to api.Message values (images included), the
// request is sent with stream=false, and the single assistant reply is
// converted back to a model.Message.
func (g *OllamaGateway) Chat(ctx context.Context, endpoint string, params model.ChatParams) (res *model.ChatResult, err error) {
	start := time.Now()
	defer func() { g.observe(OpChat, endpoint, start, err) }()

	c, err := g.client(endpoint)
	if err != nil {
		return nil, err
	}

	config.Debugf(ctx, "chat model=%s messages=%d options=%v format=%q",
		params.Model, len(params.Messages), params.Options, params.Format)

	resp, err := c.Chat(ctx, ollama.ChatRequest{
		Model:    params.Model,
		Messages: ConvertToOllamaMessages(params.Messages),
		Options:  params.Options.Map(),
		Format:   params.Format,
	})
	if err != nil {
		return nil, err
	}

	return &model.ChatResult{
		Model:      resp.Model,
		Message:    ConvertFromOllamaMessage(resp.Message),
		DoneReason: resp.DoneReason,
		EvalCount:  resp.EvalCount,
	}, nil
}

// Ping implements model.Gateway.Ping.
func (g *OllamaGateway) Ping(ctx context.Context, endpoint string) (err error) {
	start := time.Now()
	defer func() { g.observe(OpPing, endpoint, start, err) }()

	c, err := g.client(endpoint)
	if err != nil {
		return err
	}
	return c.Ping(ctx)
}
