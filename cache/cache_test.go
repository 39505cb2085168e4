package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ollamanodes/model"
	"ollamanodes/ollama"
	"ollamanodes/provider/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func perEndpoint(lists map[string][]string) *testutil.MockGateway {
	gw := testutil.NewMockGateway()
	gw.ListModelsFunc = func(ctx context.Context, endpoint string) ([]string, error) {
		l, ok := lists[endpoint]
		if !ok {
			return nil, testutil.UnavailableError(endpoint)
		}
		return l, nil
	}
	return gw
}

func TestGetBeforeRefreshIsEmpty(t *testing.T) {
	c := New(testutil.NewMockGateway("a"))

	got := c.Get("http://never:1")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.False(t, c.Has("http://never:1"))
	assert.Equal(t, "", c.LastEndpoint())
}

func TestRefreshThenGet(t *testing.T) {
	c := New(testutil.NewMockGateway("a", "b"))

	list, err := c.Refresh(context.Background(), "http://h:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)
	assert.Equal(t, []string{"a", "b"}, c.Get("http://h:1"))
	assert.Equal(t, "http://h:1", c.LastEndpoint())

	// returned slices are copies
	list[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, c.Get("http://h:1"))
}

func TestRefreshIsolatesEndpoints(t *testing.T) {
	c := New(perEndpoint(map[string][]string{
		"http://h:1": {"a"},
		"http://h:2": {"x", "y"},
	}))
	ctx := context.Background()

	_, err := c.Refresh(ctx, "http://h:1")
	require.NoError(t, err)
	_, err = c.Refresh(ctx, "http://h:2")
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, c.Get("http://h:1"))
	assert.Equal(t, []string{"x", "y"}, c.Get("http://h:2"))
	assert.Equal(t, []string{"http://h:1", "http://h:2"}, c.Endpoints())
}

func TestRefreshErrorWritesNothing(t *testing.T) {
	gw := testutil.NewMockGateway()
	c := New(gw)
	c.Set("http://h:1", []string{"old"})

	gw.ListModelsFunc = func(ctx context.Context, endpoint string) ([]string, error) {
		return nil, testutil.RejectedError("list models", endpoint, 500, "boom")
	}

	_, err := c.Refresh(context.Background(), "http://h:1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ollama.ErrRemoteRejected)
	assert.Equal(t, []string{"old"}, c.Get("http://h:1"))

	_, err = c.Refresh(context.Background(), "http://h:2")
	require.Error(t, err)
	assert.False(t, c.Has("http://h:2"))
}

func TestRefreshEmptyListCommitsEmpty(t *testing.T) {
	c := New(testutil.NewMockGateway())

	list, err := c.Refresh(context.Background(), "http://h:1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, c.Has("http://h:1"))
}

func TestRefreshAll(t *testing.T) {
	c := New(perEndpoint(map[string][]string{
		"http://h:1": {"a"},
		"http://h:2": {"b"},
	}))

	err := c.RefreshAll(context.Background(), []string{"http://h:1", "http://h:2", "http://down:3"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ollama.ErrRemoteUnavailable)

	assert.Equal(t, []string{"a"}, c.Get("http://h:1"))
	assert.Equal(t, []string{"b"}, c.Get("http://h:2"))
	assert.False(t, c.Has("http://down:3"))
}

func TestConcurrentRefreshAndGet(t *testing.T) {
	c := New(testutil.NewMockGateway("a", "b", "c"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = c.Refresh(ctx, fmt.Sprintf("http://h:%d", i%2))
		}(i)
		go func(i int) {
			defer wg.Done()
			got := c.Get(fmt.Sprintf("http://h:%d", i%2))
			assert.True(t, len(got) == 0 || len(got) == 3)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{"a", "b", "c"}, c.Get("http://h:0"))
}

func TestSelectOnFreshEndpointAcceptsFreeText(t *testing.T) {
	c := New(testutil.NewMockGateway())

	sel := c.Select(model.ClientConfig{Endpoint: "http://h:1"}, " c ")
	assert.Equal(t, "c", sel.Model)
	assert.Equal(t, "[]", sel.ModelsJSON)
	assert.True(t, sel.Known)
	assert.NoError(t, sel.Warning)
}

func TestSelectKnownModel(t *testing.T) {
	c := New(testutil.NewMockGateway())
	c.Set("http://h:1", []string{"llama3:8b", "mistral:7b"})

	sel := c.Select(model.ClientConfig{Endpoint: "http://h:1"}, "mistral:7b")
	assert.True(t, sel.Known)
	assert.NoError(t, sel.Warning)
	assert.Equal(t, "[\n  \"llama3:8b\",\n  \"mistral:7b\"\n]", sel.ModelsJSON)
}

func TestSelectUnknownModelWarns(t *testing.T) {
	c := New(testutil.NewMockGateway())
	c.Set("http://h:1", []string{"llama3:8b", "mistral:7b"})

	sel := c.Select(model.ClientConfig{Endpoint: "http://h:1"}, "llama3")
	assert.False(t, sel.Known)
	assert.Equal(t, "llama3", sel.Model)
	require.Error(t, sel.Warning)
	assert.True(t, errors.Is(sel.Warning, ErrInvalidModelSelection))

	var w *SelectionWarning
	require.ErrorAs(t, sel.Warning, &w)
	assert.Equal(t, []string{"llama3:8b"}, w.Suggestions)
	assert.Contains(t, sel.Warning.Error(), "did you mean: llama3:8b?")
}

func TestSuggest(t *testing.T) {
	assert.Nil(t, Suggest("", []string{"a"}))
	assert.Empty(t, Suggest("zzz", []string{"llama3"}))
	assert.Len(t, Suggest("a", []string{"a1", "a2", "a3", "a4"}), 3)
}
