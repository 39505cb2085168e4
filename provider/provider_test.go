package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ollamanodes/config"
	"ollamanodes/model"
	"ollamanodes/ollama"
	"ollamanodes/provider/testutil"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	ops   []string
	fails int
}

func (r *recordingObserver) ObserveGatewayCall(op, endpoint string, err error, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	if err != nil {
		r.fails++
	}
}

func daemon(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestGatewayListModels(t *testing.T) {
	endpoint := daemon(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = io.WriteString(w, `{"models":[{"name":"llama3:8b"},{"name":"mistral:7b"}]}`)
	})
	obs := &recordingObserver{}
	gw := NewOllamaGateway(nil, ollama.Timeouts{}, obs)

	names, err := gw.ListModels(context.Background(), endpoint)
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:8b", "mistral:7b"}, names)
	assert.Equal(t, []string{OpListModels}, obs.ops)
	assert.Zero(t, obs.fails)
}

func TestGatewayListModelsEmpty(t *testing.T) {
	endpoint := daemon(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"models":[]}`)
	})
	gw := NewOllamaGateway(nil, ollama.Timeouts{}, nil)

	names, err := gw.ListModels(context.Background(), endpoint)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestGatewayInvalidEndpoint(t *testing.T) {
	obs := &recordingObserver{}
	gw := NewOllamaGateway(nil, ollama.Timeouts{}, obs)

	_, err := gw.ListModels(context.Background(), "not a url")
	assert.Error(t, err)
	assert.Equal(t, 1, obs.fails)
}

func TestGatewayLoadRejected(t *testing.T) {
	endpoint := daemon(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"model 'nope' not found"}`)
	})
	gw := NewOllamaGateway(nil, ollama.Timeouts{}, nil)

	_, err := gw.LoadModel(context.Background(), endpoint, "nope", "-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ollama.ErrRemoteRejected)
}

func TestGatewayChatConvertsMessages(t *testing.T) {
	var got api.ChatRequest
	endpoint := daemon(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":"hello"},"done":true,"done_reason":"stop","eval_count":3}`)
	})
	gw := NewOllamaGateway(nil, ollama.Timeouts{}, nil)

	res, err := gw.Chat(context.Background(), endpoint, model.ChatParams{
		Model:    "llama3",
		Messages: model.History{model.SystemMessage("sys"), model.UserMessage("hi", []byte("img"))},
		Options:  model.Options{model.OptTemperature: 0.2},
		Format:   "json",
	})
	require.NoError(t, err)

	assert.Equal(t, model.AssistantMessage("hello"), res.Message)
	assert.Equal(t, "stop", res.DoneReason)
	assert.Equal(t, 3, res.EvalCount)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, []api.ImageData{api.ImageData("img")}, got.Messages[1].Images)
	assert.Equal(t, 0.2, got.Options[model.OptTemperature])
	assert.JSONEq(t, `"json"`, string(got.Format))
}

func TestConvertRoundTrip(t *testing.T) {
	msgs := ConvertToOllamaMessages(testutil.TestHistory())
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Nil(t, msgs[1].Images)

	assert.Equal(t, model.RoleAssistant, ConvertFromOllamaMessage(api.Message{Content: "x"}).Role)
	assert.Equal(t, model.RoleAssistant, ConvertFromOllamaMessage(api.Message{Role: "tool"}).Role)

	back := ConvertFromOllamaMessage(api.Message{Role: "user", Images: []api.ImageData{[]byte{1}}})
	assert.Equal(t, [][]byte{{1}}, back.Images)
}

func TestTimeoutsFromConfig(t *testing.T) {
	assert.Equal(t, ollama.Timeouts{}, TimeoutsFromConfig(nil))

	cfg := &config.Config{Timeouts: config.Timeouts{List: time.Second, Chat: time.Minute}}
	assert.Equal(t, ollama.Timeouts{List: time.Second, Chat: time.Minute}, TimeoutsFromConfig(cfg))
	assert.NotNil(t, NewGateway(cfg, nil))
}

func TestEncodePNG(t *testing.T) {
	pngData := testutil.TestPNG()
	out, err := EncodePNG(pngData)
	require.NoError(t, err)
	assert.Equal(t, pngData, out)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	out, err = EncodePNG(buf.Bytes())
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = EncodePNG(nil)
	assert.Error(t, err)
	_, err = EncodePNG([]byte("not an image"))
	assert.Error(t, err)
}
