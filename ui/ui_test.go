package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ollamanodes/model"
	"ollamanodes/nodes"
)

type recordingAdapter struct {
	calls []populateCall
	err   error
}

type populateCall struct {
	nodeID string
	spec   model.DropdownSpec
}

func (r *recordingAdapter) Populate(nodeID string, spec model.DropdownSpec) error {
	r.calls = append(r.calls, populateCall{nodeID: nodeID, spec: spec})
	return r.err
}

func modelsEvent(nodeID, modelsJSON string, outputs map[string]any) nodes.Event {
	out := map[string]any{"models_json": modelsJSON}
	for k, v := range outputs {
		out[k] = v
	}
	return nodes.Event{
		NodeID: nodeID,
		Spec:   nodes.Spec{Name: "OllamaModelSelector"},
		Inputs: nodes.Inputs{},
		Result: &nodes.Result{Outputs: out},
	}
}

func TestDropdownListenerPopulatesFromModelsJSON(t *testing.T) {
	adapter := &recordingAdapter{}
	l := NewDropdownListener(adapter)

	l.NodeExecuted(context.Background(), modelsEvent("7", `["llama3:8b","mistral:7b"]`, map[string]any{"model": "mistral:7b"}))

	require.Len(t, adapter.calls, 1)
	assert.Equal(t, "7", adapter.calls[0].nodeID)
	assert.Equal(t, []string{"llama3:8b", "mistral:7b"}, adapter.calls[0].spec.Options)
	assert.Equal(t, "mistral:7b", adapter.calls[0].spec.Default)
	assert.False(t, adapter.calls[0].spec.Empty)
}

func TestDropdownListenerEmptyList(t *testing.T) {
	adapter := &recordingAdapter{}
	l := NewDropdownListener(adapter)

	l.NodeExecuted(context.Background(), modelsEvent("3", "[]", nil))

	require.Len(t, adapter.calls, 1)
	spec := adapter.calls[0].spec
	assert.True(t, spec.Empty)
	assert.Empty(t, spec.Options)
	assert.Equal(t, model.NoModelsPlaceholder, spec.Placeholder)
}

func TestDropdownListenerFallsBackToInputModel(t *testing.T) {
	adapter := &recordingAdapter{}
	l := NewDropdownListener(adapter)

	ev := modelsEvent("1", `["a","b"]`, nil)
	ev.Inputs = nodes.Inputs{"model": "b"}
	l.NodeExecuted(context.Background(), ev)

	require.Len(t, adapter.calls, 1)
	assert.Equal(t, "b", adapter.calls[0].spec.Default)
}

func TestDropdownListenerIgnoresIrrelevantEvents(t *testing.T) {
	adapter := &recordingAdapter{}
	l := NewDropdownListener(adapter)
	ctx := context.Background()

	l.NodeExecuted(ctx, nodes.Event{Err: errors.New("boom")})
	l.NodeExecuted(ctx, nodes.Event{Result: &nodes.Result{Outputs: map[string]any{"response": "hi"}}})
	l.NodeExecuted(ctx, modelsEvent("1", "not json", nil))
	l.NodeExecuted(ctx, modelsEvent("1", "  ", nil))

	assert.Empty(t, adapter.calls)
}

func TestDropdownListenerSurvivesAdapterError(t *testing.T) {
	adapter := &recordingAdapter{err: errors.New("widget gone")}
	l := NewDropdownListener(adapter)

	assert.NotPanics(t, func() {
		l.NodeExecuted(context.Background(), modelsEvent("1", `["a"]`, nil))
	})
	assert.Len(t, adapter.calls, 1)
}

func TestTerminalAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewTerminalAdapter(&buf)

	spec := model.BuildDropdown([]string{"llama3:8b", "mistral:7b"}, "mistral:7b")
	require.NoError(t, adapter.Populate("12", spec))

	out := buf.String()
	assert.Contains(t, out, "Models for 12")
	assert.Contains(t, out, "(2)")
	assert.Contains(t, out, "  llama3:8b")
	assert.Contains(t, out, "* mistral:7b")

	last, ok := adapter.Last("12")
	require.True(t, ok)
	assert.Equal(t, spec, last)

	_, ok = adapter.Last("13")
	assert.False(t, ok)
}

func TestRenderDropdownEmpty(t *testing.T) {
	out := RenderDropdown("", model.BuildDropdown(nil, ""))
	assert.Contains(t, out, "Models")
	assert.Contains(t, out, "(0)")
	assert.Contains(t, out, model.NoModelsPlaceholder)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPickerStartsOnDefault(t *testing.T) {
	p := NewPicker("Select Model", model.BuildDropdown([]string{"a", "b", "c"}, "b"))

	p.Update(tea.KeyMsg{Type: tea.KeyEnter})

	name, ok := p.Choice()
	require.True(t, ok)
	assert.Equal(t, "b", name)
}

func TestPickerNavigation(t *testing.T) {
	p := NewPicker("Select Model", model.BuildDropdown([]string{"a", "b", "c"}, ""))

	p.Update(runes("j"))
	p.Update(runes("j"))
	p.Update(runes("j"))
	p.Update(runes("k"))
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.NotNil(t, cmd)
	name, ok := p.Choice()
	require.True(t, ok)
	assert.Equal(t, "b", name)
}

func TestPickerFuzzyFilter(t *testing.T) {
	p := NewPicker("Select Model", model.BuildDropdown([]string{"llama3:8b", "mistral:7b", "llava:13b"}, ""))

	p.Update(runes("/"))
	p.Update(runes("lla"))

	assert.ElementsMatch(t, []string{"llama3:8b", "llava:13b"}, p.visible())

	p.Update(runes("v"))
	assert.Equal(t, []string{"llava:13b"}, p.visible())

	p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	name, ok := p.Choice()
	require.True(t, ok)
	assert.Equal(t, "llava:13b", name)
}

func TestPickerFilterNoMatches(t *testing.T) {
	p := NewPicker("Select Model", model.BuildDropdown([]string{"llama3:8b"}, ""))

	p.Update(runes("/"))
	p.Update(runes("zzz"))

	assert.Empty(t, p.visible())
	assert.Contains(t, p.View(), "No matches found")

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	_, ok := p.Choice()
	assert.False(t, ok)

	p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, []string{"llama3:8b"}, p.visible())
}

func TestPickerCancel(t *testing.T) {
	p := NewPicker("Select Model", model.BuildDropdown([]string{"a"}, "a"))

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.NotNil(t, cmd)
	_, ok := p.Choice()
	assert.False(t, ok)
}

func TestPickerViewEmpty(t *testing.T) {
	p := NewPicker("Select Model", model.BuildDropdown(nil, ""))
	p.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	view := p.View()
	assert.Contains(t, view, "Select Model")
	assert.Contains(t, view, model.NoModelsPlaceholder)
	assert.Contains(t, view, "0 models")
}

func TestPickerViewMarksCurrent(t *testing.T) {
	p := NewPicker("Select Model", model.BuildDropdown([]string{"a", "b"}, "b"))

	view := p.View()
	assert.Contains(t, view, "2 models")
	assert.Contains(t, view, "▶ b (current)")
}

func TestScrollWindow(t *testing.T) {
	tests := []struct {
		name               string
		n, selected, rows  int
		wantStart, wantEnd int
	}{
		{"fits", 5, 2, 10, 0, 5},
		{"top", 50, 1, 10, 0, 10},
		{"bottom", 50, 48, 10, 40, 50},
		{"middle", 50, 25, 10, 20, 30},
		{"zero rows", 3, 0, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := scrollWindow(tt.n, tt.selected, tt.rows)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestFormatFooter(t *testing.T) {
	out := FormatFooter("j/k", "Navigate", "Enter")
	assert.Contains(t, out, "j/k")
	assert.Contains(t, out, "Navigate")
	assert.NotContains(t, out, "Enter")
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Title\n\nSome **bold** text and https://ollama.com", 60)

	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "https://ollama.com")
	assert.NotContains(t, out, "**")
}
