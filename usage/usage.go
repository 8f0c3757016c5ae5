package usage

import (
	"github.com/cabird/gpt-chrome-latex-ext/template"
	"github.com/cabird/gpt-chrome-latex-ext/tokens"
)

// Role identifies one of the user-editable prompt inputs.
type Role string

// Field roles.
const (
	RoleContext     Role = "context"
	RoleSelection   Role = "selection"
	RoleInstruction Role = "instruction"
)

// Field is a single prompt input.
type Field struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Summary is the token accounting for one render.
type Summary struct {
	ContextTokens     int  `json:"context_tokens"`
	SelectionTokens   int  `json:"selection_tokens"`
	InstructionTokens int  `json:"instruction_tokens"`
	TotalTokens       int  `json:"total_tokens"`
	Threshold         int  `json:"threshold"`
	ExceedsThreshold  bool `json:"exceeds_threshold"`
}

// Fields returns the per-field counts keyed by role.
func (s Summary) Fields() map[Role]int {
	return map[Role]int{
		RoleContext:     s.ContextTokens,
		RoleSelection:   s.SelectionTokens,
		RoleInstruction: s.InstructionTokens,
	}
}

// Total formats the total for display.
func (s Summary) Total() tokens.Formatted {
	return tokens.FormatWithThreshold(s.TotalTokens, s.Threshold)
}

// Headroom is how many tokens remain before limit. Negative when the prompt
// is already over.
func (s Summary) Headroom(limit int) int {
	return limit - s.TotalTokens
}

// Aggregator computes summaries. The zero value is not usable; call New.
type Aggregator struct {
	counter   tokens.Counter
	threshold int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCounter replaces the heuristic counter.
func WithCounter(c tokens.Counter) Option {
	return func(a *Aggregator) {
		if c != nil {
			a.counter = c
		}
	}
}

// WithThreshold sets the warning threshold. Non-positive values keep
// tokens.DefaultThreshold.
func WithThreshold(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.threshold = n
		}
	}
}

// New creates an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		counter:   tokens.NewHeuristicCounter(),
		threshold: tokens.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Threshold returns the configured warning threshold.
func (a *Aggregator) Threshold() int {
	return a.threshold
}

// Summarize counts f and the prompt rendered from tmpl. An empty tmpl uses
// template.DefaultTemplate.
func (a *Aggregator) Summarize(f template.Fields, tmpl string) Summary {
	rendered := template.RenderDefault(tmpl, f)
	total := a.counter.Count(rendered)

	return Summary{
		ContextTokens:     a.counter.Count(f.Context),
		SelectionTokens:   a.counter.Count(f.Selection),
		InstructionTokens: a.counter.Count(f.Instruction),
		TotalTokens:       total,
		Threshold:         a.threshold,
		ExceedsThreshold:  total > a.threshold,
	}
}

// SummarizeFields is Summarize for a list of role-tagged fields. Later
// fields with the same role replace earlier ones; unknown roles are ignored.
func (a *Aggregator) SummarizeFields(fields []Field, tmpl string) Summary {
	var f template.Fields
	for _, field := range fields {
		switch field.Role {
		case RoleContext:
			f.Context = field.Text
		case RoleSelection:
			f.Selection = field.Text
		case RoleInstruction:
			f.Instruction = field.Text
		}
	}
	return a.Summarize(f, tmpl)
}

// Summarize uses the heuristic counter with the given threshold.
func Summarize(f template.Fields, tmpl string, threshold int) Summary {
	return New(WithThreshold(threshold)).Summarize(f, tmpl)
}
