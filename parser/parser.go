package parser

import (
	"regexp"
	"strings"
)

// Response contains structured data extracted from a completion.
type Response struct {
	// Raw is the original response text.
	Raw string

	// Text is the response with code blocks removed, trimmed.
	Text string

	// CodeBlocks contains all extracted code blocks in order.
	CodeBlocks []CodeBlock

	// Sections contains markdown sections by title.
	Sections map[string]string
}

// CodeBlock represents a fenced code block.
type CodeBlock struct {
	// Language is the lower-cased specifier after the opening fence
	// (e.g., "latex", "tex"). Empty for unlabeled blocks.
	Language string

	// Content is the code inside the block, excluding fences and the
	// newlines next to them.
	Content string

	// Raw is the complete block including the fences.
	Raw string
}

// latexLanguages are fence labels treated as LaTeX.
var latexLanguages = map[string]bool{
	"latex": true,
	"tex":   true,
}

// Parser extracts structured content from responses.
type Parser struct {
	codeBlockRegex *regexp.Regexp
	sectionRegex   *regexp.Regexp
}

// NewParser creates a new response parser with compiled regexes.
func NewParser() *Parser {
	return &Parser{
		codeBlockRegex: regexp.MustCompile("(?s)```([\\w+#-]*)[ \\t]*\\r?\\n(.*?)```"),
		sectionRegex:   regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`),
	}
}

// Parse extracts structured content from a response.
func (p *Parser) Parse(response string) *Response {
	return &Response{
		Raw:        response,
		Text:       strings.TrimSpace(p.removeCodeBlocks(response)),
		CodeBlocks: p.extractCodeBlocks(response),
		Sections:   p.extractSections(response),
	}
}

// extractCodeBlocks finds all fenced code blocks in the response.
func (p *Parser) extractCodeBlocks(text string) []CodeBlock {
	matches := p.codeBlockRegex.FindAllStringSubmatch(text, -1)
	blocks := make([]CodeBlock, 0, len(matches))

	for _, match := range matches {
		blocks = append(blocks, CodeBlock{
			Language: strings.ToLower(match[1]),
			Content:  strings.Trim(match[2], "\r\n"),
			Raw:      match[0],
		})
	}

	return blocks
}

// extractSections extracts markdown sections and their content.
func (p *Parser) extractSections(text string) map[string]string {
	sections := make(map[string]string)

	// Headers inside code blocks are LaTeX or code comments, not sections.
	text = p.removeCodeBlocks(text)
	matches := p.sectionRegex.FindAllStringSubmatchIndex(text, -1)

	for i, match := range matches {
		headerEnd := match[1]
		title := strings.TrimSpace(text[match[4]:match[5]])

		// Content extends from after this header to the next header (or end)
		contentEnd := len(text)
		if i+1 < len(matches) {
			contentEnd = matches[i+1][0]
		}

		sections[title] = strings.TrimSpace(text[headerEnd:contentEnd])
	}

	return sections
}

// removeCodeBlocks removes all code blocks from the text.
func (p *Parser) removeCodeBlocks(text string) string {
	return p.codeBlockRegex.ReplaceAllString(text, "")
}

// ExtractCode extracts the first code block with the given language,
// compared case-insensitively. If language is empty, returns the first code
// block found.
func (p *Parser) ExtractCode(response, language string) string {
	language = strings.ToLower(language)
	for _, block := range p.extractCodeBlocks(response) {
		if language == "" || block.Language == language {
			return block.Content
		}
	}
	return ""
}

// ExtractAllCode extracts all code blocks from the response.
func (p *Parser) ExtractAllCode(response string) []CodeBlock {
	return p.extractCodeBlocks(response)
}

// ExtractLaTeX returns the revised LaTeX in a response: the first block
// labeled latex or tex, else the first unlabeled block, else the whole
// response trimmed.
func (p *Parser) ExtractLaTeX(response string) string {
	blocks := p.extractCodeBlocks(response)
	for _, block := range blocks {
		if latexLanguages[block.Language] {
			return block.Content
		}
	}
	for _, block := range blocks {
		if block.Language == "" {
			return block.Content
		}
	}
	return strings.TrimSpace(response)
}

// ExtractSection extracts the content of a specific section by title.
func (p *Parser) ExtractSection(response, title string) string {
	sections := p.extractSections(response)

	// Try exact match first
	if content, ok := sections[title]; ok {
		return content
	}

	// Try case-insensitive match
	for sectionTitle, content := range sections {
		if strings.EqualFold(sectionTitle, title) {
			return content
		}
	}

	return ""
}

// HasCodeBlock checks if the response contains any code block.
func (p *Parser) HasCodeBlock(response string) bool {
	return p.codeBlockRegex.MatchString(response)
}

var defaultParser = NewParser()

// Parse is a convenience function using the default parser.
func Parse(response string) *Response {
	return defaultParser.Parse(response)
}

// ExtractCode is a convenience function for code extraction.
func ExtractCode(response, language string) string {
	return defaultParser.ExtractCode(response, language)
}

// ExtractLaTeX is a convenience function for LaTeX extraction.
func ExtractLaTeX(response string) string {
	return defaultParser.ExtractLaTeX(response)
}
