package server

import (
	"ollamanodes/nodes"
)

type modelsResponse struct {
	Success  bool     `json:"success"`
	Models   []string `json:"models"`
	Count    int      `json:"count"`
	Endpoint string   `json:"endpoint"`
	Cached   bool     `json:"cached,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint"`
	Error    string `json:"error,omitempty"`
}

type runRequest struct {
	NodeID string       `json:"node_id"`
	Inputs nodes.Inputs `json:"inputs"`
}

type runResponse struct {
	Success bool           `json:"success"`
	Outputs map[string]any `json:"outputs"`
	Text    []string       `json:"text,omitempty"`
}

type slotView struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Default  any      `json:"default,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	Required bool     `json:"required"`
	Tooltip  string   `json:"tooltip,omitempty"`
}

type nodeView struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	OutputNode  bool       `json:"output_node"`
	Inputs      []slotView `json:"inputs"`
	Outputs     []slotView `json:"outputs"`
}

func newNodeView(spec nodes.Spec) nodeView {
	v := nodeView{
		Name:        spec.Name,
		DisplayName: spec.DisplayName,
		Category:    spec.Category,
		Description: spec.Description,
		OutputNode:  spec.OutputNode,
		Inputs:      make([]slotView, 0, len(spec.Required)+len(spec.Optional)),
		Outputs:     make([]slotView, 0, len(spec.Outputs)),
	}
	for _, s := range spec.Required {
		v.Inputs = append(v.Inputs, newSlotView(s, true))
	}
	for _, s := range spec.Optional {
		v.Inputs = append(v.Inputs, newSlotView(s, false))
	}
	for _, s := range spec.Outputs {
		v.Outputs = append(v.Outputs, slotView{Name: s.Name, Type: string(s.Type)})
	}
	return v
}

func newSlotView(s nodes.Slot, required bool) slotView {
	return slotView{
		Name:     s.Name,
		Type:     string(s.Type),
		Default:  s.Default,
		Min:      s.Min,
		Max:      s.Max,
		Choices:  s.Choices,
		Required: required,
		Tooltip:  s.Tooltip,
	}
}
