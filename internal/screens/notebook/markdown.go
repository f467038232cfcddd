package notebook

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders cell markdown for the terminal, memoized per width.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

// Render returns md rendered at width. Rendering failures fall back to the
// raw text.
func (r *markdownRenderer) Render(md string, width int) string {
	if width != r.width || r.renderer == nil {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		r.renderer = tr
		r.width = width
		r.cache = make(map[string]string)
	}
	if out, ok := r.cache[md]; ok {
		return out
	}
	out, err := r.renderer.Render(md)
	if err != nil {
		return md
	}
	out = strings.Trim(out, "\n")
	r.cache[md] = out
	return out
}
