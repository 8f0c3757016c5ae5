package truncate

import (
	"github.com/cabird/gpt-chrome-latex-ext/template"
	"github.com/cabird/gpt-chrome-latex-ext/tokens"
)

// FitContext cuts f.Context from the start, on line boundaries, until the
// prompt rendered from tmpl counts at most limit tokens. The context nearest
// the end is kept. Selection and instruction are untouched, so the result
// may still be over limit when they alone exceed it. A context the template
// does not render is left alone. It reports whether the context changed.
func FitContext(counter tokens.Counter, tmpl string, f template.Fields, limit int) (template.Fields, bool) {
	if counter == nil {
		counter = tokens.NewHeuristicCounter()
	}
	tmpl = template.Resolve(tmpl)
	if f.Context == "" {
		return f, false
	}
	rendered := template.Render(tmpl, f)
	if counter.FitsInLimit(rendered, limit) {
		return f, false
	}
	// Context the template never renders costs nothing to keep.
	without := f
	without.Context = ""
	if template.Render(tmpl, without) == rendered {
		return f, false
	}

	tr := New(FromStart, WithCounter(counter), WithLineBoundary())
	ctx, _ := tr.TruncateFunc(f.Context, func(candidate string) bool {
		g := f
		g.Context = candidate
		return counter.FitsInLimit(template.Render(tmpl, g), limit)
	})
	f.Context = ctx
	return f, true
}
