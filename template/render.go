package template

import (
	"slices"
	"strings"
)

// Recognised placeholders.
const (
	PlaceholderSelection   = "{{LATEX_TEXT}}"
	PlaceholderInstruction = "{{INSTRUCTIONS}}"
	PlaceholderContext     = "{{CONTEXT}}"
)

// DefaultTemplate is used whenever no template has been configured.
const DefaultTemplate = "I'm working on LaTeX text. Here is the text I've selected:\n\n" +
	PlaceholderSelection +
	"\n\nMy instruction: " +
	PlaceholderInstruction

// Fields holds the values substituted into a template.
type Fields struct {
	Selection   string `json:"selection"`
	Instruction string `json:"instruction"`
	Context     string `json:"context"`
}

// Render substitutes f into tmpl. Selection is substituted first, then
// Instruction, then Context, so a placeholder appearing inside an earlier
// value is itself replaced by a later pass.
func Render(tmpl string, f Fields) string {
	out := strings.ReplaceAll(tmpl, PlaceholderSelection, f.Selection)
	out = strings.ReplaceAll(out, PlaceholderInstruction, f.Instruction)
	return strings.ReplaceAll(out, PlaceholderContext, f.Context)
}

// Resolve returns tmpl, or DefaultTemplate when tmpl is empty.
func Resolve(tmpl string) string {
	if tmpl == "" {
		return DefaultTemplate
	}
	return tmpl
}

// RenderDefault renders tmpl, falling back to DefaultTemplate.
func RenderDefault(tmpl string, f Fields) string {
	return Render(Resolve(tmpl), f)
}

// Placeholders lists the recognised placeholders present in tmpl, in order
// of first appearance and without duplicates.
func Placeholders(tmpl string) []string {
	type hit struct {
		name string
		at   int
	}
	var hits []hit
	for _, p := range []string{PlaceholderSelection, PlaceholderInstruction, PlaceholderContext} {
		if i := strings.Index(tmpl, p); i >= 0 {
			hits = append(hits, hit{p, i})
		}
	}
	slices.SortFunc(hits, func(a, b hit) int { return a.at - b.at })

	result := make([]string, 0, len(hits))
	for _, h := range hits {
		result = append(result, h.name)
	}
	return result
}

// Check reports templates that cannot carry the selection. The resolved
// template is checked, so the empty template passes.
func Check(tmpl string) error {
	if !strings.Contains(Resolve(tmpl), PlaceholderSelection) {
		return ErrNoSelectionPlaceholder
	}
	return nil
}
