package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Markdown renders a markdown document for the terminal, word-wrapped at
// width. Without color the "notty" style is used so the output stays plain
// text.
func Markdown(md string, width int) (string, error) {
	style := glamour.WithStylePath("notty")
	if ColorEnabled {
		style = glamour.WithAutoStyle()
		if currentTheme.Name == "light" {
			style = glamour.WithStylePath("light")
		}
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
