package tui

import (
	"github.com/charmbracelet/glamour"

	"github.com/tmarche/fabula"
)

// NewRenderer builds the markdown renderer for story text. Styling
// follows the detected terminal background; if the renderer cannot be
// constructed, text passes through unrendered rather than failing the
// playthrough.
func NewRenderer() fabula.ContentRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return r.Render
}
