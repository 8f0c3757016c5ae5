package truncate

import (
	"strings"

	"github.com/cabird/gpt-chrome-latex-ext/tokens"
)

// Strategy defines which part of the text is removed.
type Strategy int

const (
	// FromEnd removes content from the end (default).
	FromEnd Strategy = iota

	// FromMiddle removes content from the middle, keeping start and end.
	FromMiddle

	// FromStart removes content from the start.
	FromStart
)

func (s Strategy) String() string {
	switch s {
	case FromMiddle:
		return "middle"
	case FromStart:
		return "start"
	default:
		return "end"
	}
}

// DefaultMarker replaces removed content. It sits on a line of its own.
const DefaultMarker = "% [truncated]"

// Truncator truncates text to fit within token limits.
type Truncator struct {
	counter      tokens.Counter
	strategy     Strategy
	marker       string
	lineBoundary bool
}

// Option configures a Truncator.
type Option func(*Truncator)

// WithCounter sets the token counter. Defaults to the heuristic counter.
func WithCounter(c tokens.Counter) Option {
	return func(t *Truncator) {
		if c != nil {
			t.counter = c
		}
	}
}

// WithMarker sets the marker line. An empty marker removes silently.
func WithMarker(marker string) Option {
	return func(t *Truncator) { t.marker = marker }
}

// WithLineBoundary drops partial lines at the cut, so no line is kept
// half. It is ignored when the kept text has no line break.
func WithLineBoundary() Option {
	return func(t *Truncator) { t.lineBoundary = true }
}

// New creates a truncator with the given strategy.
func New(strategy Strategy, opts ...Option) *Truncator {
	t := &Truncator{
		counter:  tokens.NewHeuristicCounter(),
		strategy: strategy,
		marker:   DefaultMarker,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Strategy returns the truncator's strategy.
func (t *Truncator) Strategy() Strategy {
	return t.strategy
}

// Marker returns the marker line.
func (t *Truncator) Marker() string {
	return t.marker
}

// Truncate reduces text to at most maxTokens. It reports whether anything
// was removed. If not even the marker fits, the result is empty.
func (t *Truncator) Truncate(text string, maxTokens int) (string, bool) {
	return t.TruncateFunc(text, func(candidate string) bool {
		return t.counter.FitsInLimit(candidate, maxTokens)
	})
}

// TruncateFunc keeps as much of text as fits allows. fits is called with
// candidate results and must be monotone: if a candidate fits, every
// shorter one does too.
func (t *Truncator) TruncateFunc(text string, fits func(string) bool) (string, bool) {
	if fits(text) {
		return text, false
	}

	runes := []rune(text)
	if !fits(t.assemble(runes, 0)) {
		return "", true
	}

	// Largest kept length that still fits.
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high + 1) / 2
		if fits(t.assemble(runes, mid)) {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return t.assemble(runes, low), true
}

// assemble builds the result that keeps n runes of text.
func (t *Truncator) assemble(runes []rune, n int) string {
	var headEnd, tailStart int
	switch t.strategy {
	case FromStart:
		tailStart = len(runes) - n
	case FromMiddle:
		headEnd = (n + 1) / 2
		tailStart = len(runes) - (n - headEnd)
	default:
		headEnd = n
		tailStart = len(runes)
	}
	if t.lineBoundary {
		headEnd = lineEndBefore(runes, headEnd)
		tailStart = lineStartAfter(runes, tailStart)
	}

	parts := make([]string, 0, 3)
	if headEnd > 0 {
		parts = append(parts, string(runes[:headEnd]))
	}
	if t.marker != "" {
		parts = append(parts, t.marker)
	}
	if tailStart < len(runes) {
		parts = append(parts, string(runes[tailStart:]))
	}
	return strings.Join(parts, "\n")
}

// lineEndBefore moves a head cut at end back to the last line break, unless
// the cut already falls on one or the head has none.
func lineEndBefore(runes []rune, end int) int {
	if end == 0 || end >= len(runes) || runes[end] == '\n' {
		return end
	}
	for i := end - 1; i > 0; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return end
}

// lineStartAfter moves a tail cut at start forward past the next line
// break, unless the cut already starts a line or the tail has none.
func lineStartAfter(runes []rune, start int) int {
	if start == 0 || start >= len(runes) || runes[start-1] == '\n' {
		return start
	}
	for i := start; i < len(runes)-1; i++ {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	return start
}
