package report

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the word wrap width of pretty output.
const DefaultWidth = 100

// Options control how markdown reaches the terminal.
type Options struct {
	Pretty bool
	Width  int
	// Style is a glamour style name. Empty means detect from the terminal.
	Style string
}

// Render returns markdown unchanged, or rendered for a terminal when
// opts.Pretty is set.
func Render(markdown string, opts Options) (string, error) {
	if !opts.Pretty {
		return markdown, nil
	}

	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}
