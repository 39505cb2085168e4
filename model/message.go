package model

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("unknown message role %q", s)
	}
}

// Message represents a chat message in the conversation.
// Images hold PNG-encoded bytes.
type Message struct {
	Role    Role     `json:"role" mapstructure:"role"`
	Content string   `json:"content" mapstructure:"content"`
	Images  [][]byte `json:"images,omitempty" mapstructure:"images"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string, images ...[]byte) Message {
	return Message{Role: RoleUser, Content: content, Images: images}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// History is an ordered conversation. Values are treated as immutable:
// Append never writes into the receiver's backing array.
type History []Message

func (h History) Len() int {
	return len(h)
}

func (h History) Append(msgs ...Message) History {
	out := make(History, 0, len(h)+len(msgs))
	out = append(out, h...)
	return append(out, msgs...)
}

// Clone returns a deep copy, including image payloads.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	for i, m := range h {
		out[i] = m
		if len(m.Images) > 0 {
			out[i].Images = make([][]byte, len(m.Images))
			for j, img := range m.Images {
				out[i].Images[j] = append([]byte(nil), img...)
			}
		}
	}
	return out
}

// StartsWithSystem reports whether the first message is a system prompt.
func (h History) StartsWithSystem() bool {
	return len(h) > 0 && h[0].Role == RoleSystem
}
