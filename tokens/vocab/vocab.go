// Package vocab counts tokens against a real BPE vocabulary.
//
// It exists to measure how far the heuristic estimator in package tokens
// drifts from an exact count. It is not used for threshold warnings: the
// first call for an encoding downloads the vocabulary file, which the
// extension companion cannot rely on.
package vocab

import (
	"fmt"
	"math"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/cabird/gpt-chrome-latex-ext/tokens"
)

// DefaultEncoding is used when a model has no known encoding.
const DefaultEncoding = "cl100k_base"

// Counter is a tokens.Counter backed by tiktoken.
type Counter struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

var _ tokens.Counter = (*Counter)(nil)

// New loads the named encoding ("cl100k_base", "o200k_base", ...).
func New(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("vocab: get encoding %s: %w", encoding, err)
	}
	return &Counter{enc: enc, encoding: encoding}, nil
}

// ForModel loads the encoding of model, falling back to DefaultEncoding for
// names tiktoken does not know (Azure deployment names, for instance).
func ForModel(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return &Counter{enc: enc, encoding: "model:" + model}, nil
	}
	return New(DefaultEncoding)
}

// Encoding reports which vocabulary the counter uses.
func (c *Counter) Encoding() string {
	return c.encoding
}

// Count returns the exact number of BPE tokens in text. Special token
// sequences are allowed so text like "<|endoftext|>" cannot panic.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, []string{"all"}, nil))
}

// FitsInLimit returns true if the text fits within the token limit.
func (c *Counter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Drift compares an estimate with a reference count for one text.
type Drift struct {
	Estimated int `json:"estimated"`
	Reference int `json:"reference"`

	// RelativeError is (Estimated-Reference)/Reference; positive means the
	// estimate overcounts. Zero when both counts are zero.
	RelativeError float64 `json:"relative_error"`
}

// Within reports whether the absolute relative error is at most tolerance.
func (d Drift) Within(tolerance float64) bool {
	return math.Abs(d.RelativeError) <= tolerance
}

// Compare counts text with both counters.
func Compare(estimator, reference tokens.Counter, text string) Drift {
	d := Drift{
		Estimated: estimator.Count(text),
		Reference: reference.Count(text),
	}
	switch {
	case d.Reference > 0:
		d.RelativeError = float64(d.Estimated-d.Reference) / float64(d.Reference)
	case d.Estimated > 0:
		d.RelativeError = math.Inf(1)
	}
	return d
}
