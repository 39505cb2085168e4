package model

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

const historyPreviewWidth = 200

// FormatHistory renders a history for inspection. Long messages are cut to
// 200 display columns.
func FormatHistory(h History) string {
	if len(h) == 0 {
		return "(Empty history)"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("=== Conversation History (%d messages) ===\n", len(h)))

	for i, msg := range h {
		role := string(msg.Role)
		if role == "" {
			role = "unknown"
		}

		content := msg.Content
		if runewidth.StringWidth(content) > historyPreviewWidth {
			content = runewidth.Truncate(content, historyPreviewWidth, "") + "..."
		}
		if n := len(msg.Images); n > 0 {
			content += fmt.Sprintf(" [%d image(s)]", n)
		}

		lines = append(lines, fmt.Sprintf("[%d] %s:", i+1, strings.ToUpper(role)))
		lines = append(lines, fmt.Sprintf("    %s\n", content))
	}

	return strings.Join(lines, "\n")
}
