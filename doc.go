// Package latexext is the Go companion of a browser extension that sends
// selected LaTeX to a GPT model with an instruction and shows the result.
//
// The module is organized as independent packages:
//
//   - tokens: LaTeX-aware token estimation and threshold formatting
//   - tokens/vocab: exact BPE counts, for measuring estimator drift
//   - template: {{LATEX_TEXT}}, {{INSTRUCTIONS}} and {{CONTEXT}} substitution
//   - usage: per-field and total token summaries against a threshold
//   - truncate: token-budget truncation, used to fit context to a model
//   - provider: the chat-completion client interface, profiles and errors
//   - openai: Azure OpenAI and OpenAI clients
//   - parser: extracting LaTeX and code blocks from responses
//   - model: model families, estimate reconciliation and cost
//   - settings: profiles and prompt settings in YAML, TOML, JSON or SQLite
//   - session: selection state, summaries and submission
//   - server: the loopback HTTP and WebSocket bridge for the extension
//
// The latexext command in cmd/latexext wires them together.
//
// # Quick Start
//
// Token counting:
//
//	import "github.com/cabird/gpt-chrome-latex-ext/tokens"
//	n := tokens.EstimateTokens(`\section{Introduction}`)
//
// Summarizing a prompt:
//
//	import "github.com/cabird/gpt-chrome-latex-ext/usage"
//	sum := usage.Summarize(template.Fields{
//	    Selection:   selected,
//	    Instruction: "make this more concise",
//	}, "", tokens.DefaultThreshold)
//	if sum.ExceedsThreshold {
//	    fmt.Println("prompt is large:", sum.Total().Text)
//	}
//
// Submitting:
//
//	import _ "github.com/cabird/gpt-chrome-latex-ext/providers"
//	store, _ := settings.Open(path)
//	s := session.New(store)
//	s.SetSelection(selected)
//	s.SetInstruction("fix the grammar")
//	res, err := s.Submit(ctx)
package latexext
