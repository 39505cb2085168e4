// Package ui feeds model lists produced by node executions to whatever
// widget a host shows them in, and provides a terminal picker over them.
package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"ollamanodes/config"
	"ollamanodes/model"
	"ollamanodes/nodes"
)

// WidgetAdapter receives dropdown contents for a node instance.
type WidgetAdapter interface {
	Populate(nodeID string, spec model.DropdownSpec) error
}

// DropdownListener pushes every models_json output the executor produces to
// a WidgetAdapter. It subscribes with Executor.Subscribe.
type DropdownListener struct {
	adapter WidgetAdapter
}

func NewDropdownListener(adapter WidgetAdapter) *DropdownListener {
	return &DropdownListener{adapter: adapter}
}

func (l *DropdownListener) NodeExecuted(ctx context.Context, ev nodes.Event) {
	if ev.Err != nil || ev.Result == nil {
		return
	}
	raw, ok := ev.Result.Outputs["models_json"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}

	models, err := model.ParseModelsJSON(raw)
	if err != nil {
		config.Debugf(ctx, "dropdown: %s produced unreadable models_json: %v", ev.Spec.Name, err)
		return
	}

	spec := model.BuildDropdown(models, currentModel(ev))
	if err := l.adapter.Populate(ev.NodeID, spec); err != nil {
		config.Debugf(ctx, "dropdown: populate %q: %v", ev.NodeID, err)
	}
}

// currentModel is the model the node ended up with, falling back to the one
// it was given.
func currentModel(ev nodes.Event) string {
	if m, ok := ev.Result.Outputs["model"].(string); ok && m != "" {
		return m
	}
	m, _ := ev.Inputs["model"].(string)
	return m
}

// TerminalAdapter renders dropdowns as text, for hosts without a widget
// toolkit. It also remembers the last spec per node.
type TerminalAdapter struct {
	mu   sync.Mutex
	out  io.Writer
	last map[string]model.DropdownSpec
}

func NewTerminalAdapter(out io.Writer) *TerminalAdapter {
	return &TerminalAdapter{out: out, last: make(map[string]model.DropdownSpec)}
}

func (t *TerminalAdapter) Populate(nodeID string, spec model.DropdownSpec) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[nodeID] = spec
	_, err := io.WriteString(t.out, RenderDropdown(nodeID, spec)+"\n")
	return err
}

// Last returns the most recent spec pushed for nodeID.
func (t *TerminalAdapter) Last(nodeID string) (model.DropdownSpec, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	spec, ok := t.last[nodeID]
	return spec, ok
}

// RenderDropdown formats spec as a titled list with the default marked.
func RenderDropdown(nodeID string, spec model.DropdownSpec) string {
	title := "Models"
	if nodeID != "" {
		title = fmt.Sprintf("Models for %s", nodeID)
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString(" ")
	b.WriteString(DimStyle.Render(fmt.Sprintf("(%d)", len(spec.Options))))
	b.WriteString("\n")

	if spec.Empty {
		b.WriteString("  ")
		b.WriteString(DimStyle.Render(spec.Placeholder))
		return b.String()
	}

	for i, opt := range spec.Options {
		if i > 0 {
			b.WriteString("\n")
		}
		if opt == spec.Default {
			b.WriteString("* " + DefaultStyle.Render(opt))
		} else {
			b.WriteString("  " + opt)
		}
	}
	return b.String()
}
