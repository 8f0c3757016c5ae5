package session

import (
	"strings"

	"github.com/cabird/gpt-chrome-latex-ext/model"
	"github.com/cabird/gpt-chrome-latex-ext/provider"
	"github.com/cabird/gpt-chrome-latex-ext/template"
	"github.com/cabird/gpt-chrome-latex-ext/usage"
)

// State is the user-editable input of a session.
type State struct {
	Selection   string `json:"selection"`
	Instruction string `json:"instruction"`
	Context     string `json:"context"`
}

// Fields converts the state to template fields.
func (s State) Fields() template.Fields {
	return template.Fields{
		Selection:   s.Selection,
		Instruction: s.Instruction,
		Context:     s.Context,
	}
}

// CanSubmit reports whether there is a selection and a non-blank
// instruction.
func (s State) CanSubmit() bool {
	return s.Selection != "" && strings.TrimSpace(s.Instruction) != ""
}

// Status is the submission state of a session.
type Status string

// Session statuses.
const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
)

// Result is the outcome of a successful submission.
type Result struct {
	RequestID string `json:"request_id"`

	// Content is the full response text.
	Content string `json:"content"`

	// LaTeX is the replacement text extracted from Content.
	LaTeX string `json:"latex"`

	Response *provider.Response `json:"response"`

	// Estimate is the summary computed for the submitted state.
	Estimate usage.Summary `json:"estimate"`

	Reconciliation model.Reconciliation `json:"reconciliation"`

	// ContextTruncated is set when the context was cut to fit the model.
	ContextTruncated bool `json:"context_truncated,omitempty"`
}
