package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"ollamanodes/model"
)

// Picker is a full-screen model chooser over a DropdownSpec.
type Picker struct {
	title string
	spec  model.DropdownSpec

	filterMode  bool
	filterInput textinput.Model
	filtered    []string

	selectedIdx int
	chosen      string
	done        bool
	cancelled   bool

	width, height int
}

func NewPicker(title string, spec model.DropdownSpec) *Picker {
	filterInput := textinput.New()
	filterInput.Prompt = "Filter: "
	filterInput.CharLimit = 64

	p := &Picker{
		title:       title,
		spec:        spec,
		filterInput: filterInput,
		width:       80,
		height:      24,
	}
	for i, opt := range spec.Options {
		if opt == spec.Default {
			p.selectedIdx = i
			break
		}
	}
	return p
}

// Choice reports the picked model. ok is false when the picker was cancelled
// or nothing was picked.
func (p *Picker) Choice() (name string, ok bool) {
	if p.cancelled || !p.done {
		return "", false
	}
	return p.chosen, true
}

func (p *Picker) Init() tea.Cmd {
	return nil
}

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil
	case tea.KeyMsg:
		if p.filterMode {
			return p.updateFilter(msg)
		}
		return p.updateList(msg)
	}
	return p, nil
}

func (p *Picker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		p.filterMode = true
		p.filterInput.SetValue("")
		p.filtered = p.spec.Options
		return p, p.filterInput.Focus()
	case "j", "down":
		if p.selectedIdx < len(p.visible())-1 {
			p.selectedIdx++
		}
	case "k", "up":
		if p.selectedIdx > 0 {
			p.selectedIdx--
		}
	case "enter":
		return p, p.choose()
	case "esc", "q", "ctrl+c":
		p.cancelled = true
		return p, tea.Quit
	}
	return p, nil
}

func (p *Picker) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.filterMode = false
		p.filterInput.Blur()
		p.filterInput.SetValue("")
		p.filtered = nil
		p.selectedIdx = 0
		return p, nil
	case "ctrl+c":
		p.cancelled = true
		return p, tea.Quit
	case "enter":
		return p, p.choose()
	case "alt+j", "alt+down", "down":
		if p.selectedIdx < len(p.visible())-1 {
			p.selectedIdx++
		}
		return p, nil
	case "alt+k", "alt+up", "up":
		if p.selectedIdx > 0 {
			p.selectedIdx--
		}
		return p, nil
	}

	var cmd tea.Cmd
	p.filterInput, cmd = p.filterInput.Update(msg)
	p.applyFilter()
	return p, cmd
}

func (p *Picker) applyFilter() {
	value := p.filterInput.Value()
	if value == "" {
		p.filtered = p.spec.Options
	} else {
		matches := fuzzy.Find(value, p.spec.Options)
		p.filtered = make([]string, len(matches))
		for i, match := range matches {
			p.filtered[i] = p.spec.Options[match.Index]
		}
	}

	list := p.visible()
	if p.selectedIdx >= len(list) && len(list) > 0 {
		p.selectedIdx = len(list) - 1
	}
	if len(list) == 0 {
		p.selectedIdx = 0
	}
}

func (p *Picker) visible() []string {
	if p.filterMode {
		return p.filtered
	}
	return p.spec.Options
}

func (p *Picker) choose() tea.Cmd {
	list := p.visible()
	if p.selectedIdx < 0 || p.selectedIdx >= len(list) {
		return nil
	}
	p.chosen = list[p.selectedIdx]
	p.done = true
	return tea.Quit
}

func (p *Picker) View() string {
	modalWidth := p.width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}
	if modalWidth < 20 {
		modalWidth = 20
	}
	modalHeight := p.height - 6

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(p.title)

	list := p.visible()
	var header string
	switch {
	case p.filterMode:
		header = p.filterInput.View()
	case len(list) == 1:
		header = "1 model"
	default:
		header = fmt.Sprintf("%d models", len(list))
	}
	if p.filterMode && p.filterInput.Value() != "" {
		header += DimStyle.Render(fmt.Sprintf("  %d of %d", len(list), len(p.spec.Options)))
	}

	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	var lines []string
	if len(list) == 0 {
		emptyMsg := model.NoModelsPlaceholder
		if p.filterMode {
			emptyMsg = "No matches found"
		}
		lines = append(lines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(emptyMsg))
	} else {
		start, end := scrollWindow(len(list), p.selectedIdx, modalHeight-8)
		for i := start; i < end; i++ {
			lines = append(lines, p.renderLine(list[i], i == p.selectedIdx, modalWidth))
		}
	}

	var footer string
	if p.filterMode {
		footer = FormatFooter("Type", "to filter", "Alt+J/K", "Navigate", "Enter", "Select", "Esc", "Clear")
	} else {
		footer = FormatFooter("/", "Filter", "j/k", "Navigate", "Enter", "Select", "Esc", "Exit")
	}
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	emptyLine := strings.Repeat(" ", modalWidth)
	sections := []string{titleSection, headerSection, emptyLine}
	sections = append(sections, lines...)
	sections = append(sections, emptyLine, footerSection)

	return lipgloss.NewStyle().
		Width(p.width).
		Height(p.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(sections, "\n"))
}

func (p *Picker) renderLine(name string, selected bool, width int) string {
	indicator := "  "
	if selected {
		indicator = "▶ "
	}
	marker := ""
	if name == p.spec.Default {
		marker = " (current)"
	}

	maxName := width - len(indicator) - len(marker) - 2
	if maxName > 3 && len(name) > maxName {
		name = name[:maxName-3] + "..."
	}

	style := lipgloss.NewStyle()
	switch {
	case selected:
		style = SelectedStyle
	case marker != "":
		style = DefaultStyle
	}
	return lipgloss.NewStyle().Width(width).Render(style.Render(indicator + name + marker))
}

// scrollWindow keeps the selected row near the middle of a window of at most
// rows lines.
func scrollWindow(n, selected, rows int) (start, end int) {
	if rows < 1 {
		rows = 1
	}
	if n <= rows {
		return 0, n
	}
	switch {
	case selected < rows/2:
		return 0, rows
	case selected >= n-rows/2:
		return n - rows, n
	default:
		start = selected - rows/2
		return start, start + rows
	}
}

// RunPicker shows a picker on the terminal and returns the chosen model.
func RunPicker(title string, spec model.DropdownSpec, opts ...tea.ProgramOption) (string, bool, error) {
	p := NewPicker(title, spec)
	if _, err := tea.NewProgram(p, opts...).Run(); err != nil {
		return "", false, err
	}
	name, ok := p.Choice()
	return name, ok, nil
}
