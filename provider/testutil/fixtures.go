package testutil

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"

	"ollamanodes/model"
	"ollamanodes/ollama"
)

const TestEndpoint = "http://localhost:11434"

// TestHistory returns a sample conversation for testing
func TestHistory() model.History {
	return model.History{
		model.SystemMessage("You are a helpful assistant."),
		model.UserMessage("Hello, how are you?"),
		model.AssistantMessage("I'm doing well, thank you!"),
	}
}

// TestModels returns a typical tag list.
func TestModels() []string {
	return []string{"llama3.1:8b", "mistral:7b", "qwen2.5-coder:14b"}
}

// UnavailableError mimics a refused connection.
func UnavailableError(endpoint string) error {
	return &ollama.RemoteError{
		Op:       "list models",
		Endpoint: endpoint,
		Err:      errors.New("connection refused"),
	}
}

// RejectedError mimics a daemon answering with an error status.
func RejectedError(op, endpoint string, status int, body string) error {
	return &ollama.RemoteError{
		Op:         op,
		Endpoint:   endpoint,
		StatusCode: status,
		Body:       body,
	}
}

// TestPNG returns a tiny valid PNG.
func TestPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
