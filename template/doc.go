// Package template renders the prompt sent to the chat endpoint.
//
// A template is plain text with up to three placeholders:
//
//	{{LATEX_TEXT}}    the selected text
//	{{INSTRUCTIONS}}  the user's instruction
//	{{CONTEXT}}       optional background context
//
// Substitution is literal. Every occurrence of each placeholder is replaced,
// in the order above, and the substituted values are not escaped or scanned
// again for template syntax. Unrecognised {{...}} sequences are left as they
// are.
//
// # Usage
//
//	prompt := template.RenderDefault(userTemplate, template.Fields{
//	    Selection:   `\section{Intro}`,
//	    Instruction: "Tighten the wording",
//	})
//
// An empty template falls back to DefaultTemplate.
package template
