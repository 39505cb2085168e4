package provider

import (
	"ollamanodes/model"

	"github.com/ollama/ollama/api"
)

// ConvertToOllamaMessages converts model.History to Ollama api.Message values.
//
// Image payloads are carried over as api.ImageData; the daemon base64-encodes
// them on the wire.
//
// Example:
//
//	history := model.History{
//	    model.SystemMessage("be terse"),
//	    model.UserMessage("hi"),
//	}
//	msgs := ConvertToOllamaMessages(history)
//	// msgs[0].Role == "system"
func ConvertToOllamaMessages(history model.History) []api.Message {
	result := make([]api.Message, len(history))
	for i, msg := range history {
		result[i] = api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		if len(msg.Images) > 0 {
			images := make([]api.ImageData, len(msg.Images))
			for j, img := range msg.Images {
				images[j] = api.ImageData(img)
			}
			result[i].Images = images
		}
	}
	return result
}

// ConvertFromOllamaMessage converts a daemon reply to a model.Message.
//
// Unknown or empty roles become assistant, since that is the only role the
// chat endpoint answers with.
func ConvertFromOllamaMessage(msg api.Message) model.Message {
	role, err := model.ParseRole(msg.Role)
	if err != nil {
		role = model.RoleAssistant
	}
	out := model.Message{Role: role, Content: msg.Content}
	if len(msg.Images) > 0 {
		out.Images = make([][]byte, len(msg.Images))
		for i, img := range msg.Images {
			out.Images[i] = []byte(img)
		}
	}
	return out
}
