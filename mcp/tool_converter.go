package mcp

import (
	"encoding/base64"
	"fmt"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"ollamanodes/nodes"
	"ollamanodes/provider"
)

// NodeToolPrefix marks tools generated from node specs.
const NodeToolPrefix = "node_"

// ConvertSpecToTool describes a node as an MCP tool. Every input slot becomes
// a property; slots without a default are required.
func ConvertSpecToTool(spec nodes.Spec) mcptypes.Tool {
	schema := mcptypes.ToolInputSchema{
		Type:       "object",
		Properties: make(map[string]any),
		Required:   []string{},
	}

	for _, slot := range spec.Required {
		schema.Properties[slot.Name] = convertSlotToProperty(slot)
		if slot.Default == nil {
			schema.Required = append(schema.Required, slot.Name)
		}
	}
	for _, slot := range spec.Optional {
		schema.Properties[slot.Name] = convertSlotToProperty(slot)
	}

	desc := spec.Description
	if spec.DisplayName != "" {
		desc = fmt.Sprintf("%s: %s", spec.DisplayName, spec.Description)
	}

	return mcptypes.Tool{
		Name:        NodeToolPrefix + spec.Name,
		Description: desc,
		InputSchema: schema,
	}
}

// convertSlotToProperty maps a slot to a JSON Schema property
func convertSlotToProperty(slot nodes.Slot) map[string]any {
	prop := map[string]any{}

	switch slot.Type {
	case nodes.TypeString:
		prop["type"] = "string"
		if len(slot.Choices) > 0 {
			enum := make([]any, len(slot.Choices))
			for i, c := range slot.Choices {
				enum[i] = c
			}
			prop["enum"] = enum
		}
	case nodes.TypeInt:
		prop["type"] = "integer"
	case nodes.TypeFloat:
		prop["type"] = "number"
	case nodes.TypeBoolean:
		prop["type"] = "boolean"
	case nodes.TypeClient:
		prop["type"] = "string"
		prop["format"] = "uri"
	case nodes.TypeHistory:
		prop["type"] = []string{"array", "string"}
		prop["items"] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"role":    map[string]any{"type": "string", "enum": []any{"system", "user", "assistant"}},
				"content": map[string]any{"type": "string"},
			},
			"required": []string{"role", "content"},
		}
	case nodes.TypeOptions:
		prop["type"] = []string{"object", "string"}
	case nodes.TypeImage:
		prop["type"] = "string"
		prop["contentEncoding"] = "base64"
	}

	if slot.Min != nil {
		prop["minimum"] = *slot.Min
	}
	if slot.Max != nil {
		prop["maximum"] = *slot.Max
	}
	if slot.Default != nil {
		prop["default"] = slot.Default
	}

	desc := slot.Tooltip
	switch slot.Type {
	case nodes.TypeClient:
		desc = joinDescription(desc, "Ollama endpoint URL")
	case nodes.TypeHistory:
		desc = joinDescription(desc, "message array, or the same as a JSON string")
	case nodes.TypeOptions:
		desc = joinDescription(desc, "generation options object, or the same as a JSON string")
	case nodes.TypeImage:
		desc = joinDescription(desc, "base64 encoded image")
	}
	if desc != "" {
		prop["description"] = desc
	}

	return prop
}

func joinDescription(a, b string) string {
	if a == "" {
		return b
	}
	return a + " (" + b + ")"
}

// ConvertToolArgs turns MCP call arguments into node inputs. Image slots are
// base64 decoded and normalized to PNG; everything else passes through for
// the node's own decoding.
func ConvertToolArgs(spec nodes.Spec, args map[string]any) (nodes.Inputs, error) {
	in := make(nodes.Inputs, len(args))
	for k, v := range args {
		in[k] = v
	}

	for _, slot := range append(append([]nodes.Slot(nil), spec.Required...), spec.Optional...) {
		if slot.Type != nodes.TypeImage {
			continue
		}
		raw, ok := in[slot.Name].(string)
		if !ok {
			continue
		}
		if strings.TrimSpace(raw) == "" {
			delete(in, slot.Name)
			continue
		}
		img, err := DecodeImageArg(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", slot.Name, err)
		}
		in[slot.Name] = img
	}
	return in, nil
}

// DecodeImageArg decodes a base64 image, with or without a data: URL prefix,
// and re-encodes it as PNG.
func DecodeImageArg(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return provider.EncodePNG(data)
}
