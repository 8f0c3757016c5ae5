package tokens

import (
	"regexp"
	"unicode/utf8"
)

// DefaultCharsPerToken is the default character-to-token ratio.
// Approximately 4 characters equals 1 token for English text.
const DefaultCharsPerToken = 4.0

// Counter estimates token counts for text.
type Counter interface {
	// Count estimates the number of tokens in the given text.
	Count(text string) int

	// FitsInLimit returns true if the text fits within the token limit.
	FitsInLimit(text string, limit int) bool
}

// whitespaceClass mirrors the ECMAScript \s class so that counts agree with
// the extension running in the browser.
const whitespaceClass = `[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

var (
	whitespacePattern   = regexp.MustCompile(whitespaceClass + `+`)
	punctuationPattern  = regexp.MustCompile(`[.,!?;:'"()\[\]{}]`)
	latexCommandPattern = regexp.MustCompile(`\\[a-zA-Z]+`)
	numberPattern       = regexp.MustCompile(`\d+(?:\.\d+)?`)
	wordPattern         = regexp.MustCompile(`[a-zA-Z]+`)
)

// HeuristicCounter approximates subword tokenization of GPT-style models
// without a vocabulary. Whitespace runs, punctuation, LaTeX commands and
// numbers count one token each; the remaining Latin-letter words are charged
// by length.
//
// The result is an estimate, and a conservative one. BPE vocabularies fold a
// leading space into the following word while this counter charges the space
// separately, so on English and LaTeX prose it lands between 1x and 3x of a
// cl100k count (typically 1.5x to 2.5x) and does not undercount.
// Scripts outside the Latin alphabet (CJK, emoji, ...) contribute nothing
// beyond surrounding whitespace and punctuation.
//
// HeuristicCounter has no mutable state and is safe for concurrent use.
type HeuristicCounter struct{}

// NewHeuristicCounter creates the default estimating counter.
func NewHeuristicCounter() *HeuristicCounter {
	return &HeuristicCounter{}
}

// Count estimates the number of tokens in text. It never fails; the empty
// string yields 0.
func (c *HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}

	// Classes are counted on the original text, then blanked out in order so
	// the word pass only sees what is left.
	count := len(whitespacePattern.FindAllStringIndex(text, -1))
	count += len(punctuationPattern.FindAllStringIndex(text, -1))
	count += len(latexCommandPattern.FindAllStringIndex(text, -1))
	count += len(numberPattern.FindAllStringIndex(text, -1))

	remaining := whitespacePattern.ReplaceAllLiteralString(text, " ")
	remaining = punctuationPattern.ReplaceAllLiteralString(remaining, " ")
	remaining = latexCommandPattern.ReplaceAllLiteralString(remaining, " ")
	remaining = numberPattern.ReplaceAllLiteralString(remaining, " ")

	for _, word := range wordPattern.FindAllString(remaining, -1) {
		count += wordTokens(len(word))
	}
	return count
}

// FitsInLimit returns true if the text fits within the token limit.
func (c *HeuristicCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// wordTokens charges a word of n ASCII letters: short words are one token,
// medium words ceil(n/4), long words ceil(n/3.5).
func wordTokens(n int) int {
	switch {
	case n <= 0:
		return 0
	case n <= 3:
		return 1
	case n <= 6:
		return (n + 3) / 4
	default:
		// ceil(n / 3.5) == ceil(2n / 7)
		return (2*n + 6) / 7
	}
}

// EstimatingCounter uses a character-to-token ratio for estimation.
// It is cheaper than HeuristicCounter and blind to text structure.
type EstimatingCounter struct {
	// CharsPerToken is the average characters per token.
	// Default is 4, which works well for English text.
	CharsPerToken float64
}

// NewEstimatingCounter creates a ratio counter with default settings.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{
		CharsPerToken: DefaultCharsPerToken,
	}
}

// NewEstimatingCounterWithRatio creates a ratio counter with a custom ratio.
// If charsPerToken is <= 0, the default ratio (4.0) is used.
func NewEstimatingCounterWithRatio(charsPerToken float64) *EstimatingCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &EstimatingCounter{
		CharsPerToken: charsPerToken,
	}
}

// Count estimates the number of tokens from the rune count.
func (c *EstimatingCounter) Count(text string) int {
	runeCount := utf8.RuneCountInString(text)
	tokens := float64(runeCount) / c.CharsPerToken

	// Round to nearest integer
	return int(tokens + 0.5)
}

// FitsInLimit returns true if the text fits within the token limit.
func (c *EstimatingCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

var defaultCounter = NewHeuristicCounter()

// EstimateTokens counts text with the heuristic counter.
func EstimateTokens(text string) int {
	return defaultCounter.Count(text)
}
