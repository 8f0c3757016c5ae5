// Package parser extracts structured content from chat-completion responses.
//
// Models usually answer a LaTeX editing request with a short explanation and
// the revised text in a fenced code block. The parser splits the two so the
// revised LaTeX can be copied on its own.
//
// Core types:
//   - Response: the raw text, the prose without code blocks, the code blocks
//     and markdown sections
//   - CodeBlock: a fenced code block with language and content
//   - Parser: holds the compiled patterns
//
// Example usage:
//
//	latex := parser.ExtractLaTeX(resp.Content)
//
//	p := parser.NewParser()
//	parsed := p.Parse(resp.Content)
//	for _, block := range parsed.CodeBlocks {
//	    fmt.Printf("%s:\n%s\n", block.Language, block.Content)
//	}
package parser
