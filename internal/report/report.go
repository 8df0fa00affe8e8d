// Package report renders the result of a prune run for humans (text) or
// tools (yaml).
package report

import (
	"fmt"
	"io"

	"github.com/harrison/prunefiles/internal/pruner"
)

// Renderer writes a Result to w.
type Renderer interface {
	Render(w io.Writer, result *pruner.Result) error
}

// New returns the renderer for format ("text" or "yaml"). colorOutput only
// affects the text renderer.
func New(format string, colorOutput bool) (Renderer, error) {
	switch format {
	case "text":
		return NewTextRenderer(colorOutput), nil
	case "yaml":
		return NewYAMLRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
