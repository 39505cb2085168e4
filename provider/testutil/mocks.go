package testutil

import (
	"context"
	"sync"

	"ollamanodes/model"
	"ollamanodes/ollama"
)

// Call records one invocation against MockGateway.
type Call struct {
	Op        string
	Endpoint  string
	Model     string
	KeepAlive string
	Params    model.ChatParams
}

// MockGateway implements model.Gateway for testing
type MockGateway struct {
	// Configurable responses
	ListModelsFunc  func(ctx context.Context, endpoint string) ([]string, error)
	LoadModelFunc   func(ctx context.Context, endpoint, name, keepAlive string) (*ollama.Ack, error)
	UnloadModelFunc func(ctx context.Context, endpoint, name string) (*ollama.Ack, error)
	ChatFunc        func(ctx context.Context, endpoint string, params model.ChatParams) (*model.ChatResult, error)
	PingFunc        func(ctx context.Context, endpoint string) error

	mu    sync.Mutex
	calls []Call
}

var _ model.Gateway = (*MockGateway)(nil)

// NewMockGateway creates a mock gateway with default implementations.
// models is what ListModels returns for every endpoint.
func NewMockGateway(models ...string) *MockGateway {
	mock := &MockGateway{}
	mock.ListModelsFunc = func(ctx context.Context, endpoint string) ([]string, error) {
		return append([]string(nil), models...), nil
	}
	mock.LoadModelFunc = func(ctx context.Context, endpoint, name, keepAlive string) (*ollama.Ack, error) {
		return &ollama.Ack{Model: name, Done: true, DoneReason: "load"}, nil
	}
	mock.UnloadModelFunc = func(ctx context.Context, endpoint, name string) (*ollama.Ack, error) {
		return &ollama.Ack{Model: name, Done: true, DoneReason: "unload"}, nil
	}
	mock.ChatFunc = mock.defaultChat
	mock.PingFunc = func(ctx context.Context, endpoint string) error { return nil }
	return mock
}

// defaultChat echoes the last user message.
func (m *MockGateway) defaultChat(ctx context.Context, endpoint string, params model.ChatParams) (*model.ChatResult, error) {
	reply := "Mock response"
	if n := len(params.Messages); n > 0 {
		reply = "echo: " + params.Messages[n-1].Content
	}
	return &model.ChatResult{
		Model:      params.Model,
		Message:    model.AssistantMessage(reply),
		DoneReason: "stop",
	}, nil
}

func (m *MockGateway) record(c Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

// Calls returns a snapshot of recorded invocations.
func (m *MockGateway) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns how many times op was invoked.
func (m *MockGateway) CallCount(op string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (m *MockGateway) ListModels(ctx context.Context, endpoint string) ([]string, error) {
	m.record(Call{Op: "list_models", Endpoint: endpoint})
	return m.ListModelsFunc(ctx, endpoint)
}

func (m *MockGateway) LoadModel(ctx context.Context, endpoint, name, keepAlive string) (*ollama.Ack, error) {
	m.record(Call{Op: "load_model", Endpoint: endpoint, Model: name, KeepAlive: keepAlive})
	return m.LoadModelFunc(ctx, endpoint, name, keepAlive)
}

func (m *MockGateway) UnloadModel(ctx context.Context, endpoint, name string) (*ollama.Ack, error) {
	m.record(Call{Op: "unload_model", Endpoint: endpoint, Model: name})
	return m.UnloadModelFunc(ctx, endpoint, name)
}

func (m *MockGateway) Chat(ctx context.Context, endpoint string, params model.ChatParams) (*model.ChatResult, error) {
	m.record(Call{Op: "chat", Endpoint: endpoint, Model: params.Model, Params: params})
	return m.ChatFunc(ctx, endpoint, params)
}

func (m *MockGateway) Ping(ctx context.Context, endpoint string) error {
	m.record(Call{Op: "ping", Endpoint: endpoint})
	return m.PingFunc(ctx, endpoint)
}
