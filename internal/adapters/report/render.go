package report

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders a Markdown document for the terminal. With plain
// set the document is returned unchanged.
func RenderMarkdown(doc []byte, width int, plain bool) (string, error) {
	if plain {
		return string(doc), nil
	}
	if width <= 0 {
		width = 80
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}

	out, err := renderer.RenderBytes(doc)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return string(out), nil
}
