package ui

import (
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
)

// RenderMarkdown renders a model reply for the terminal. Autolinks are
// disabled so the terminal emulator handles URL detection itself.
func RenderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width, 0)
	doc := p.Parse([]byte(content))
	return strings.TrimRight(string(gomarkdown.Render(doc, r)), "\n")
}
