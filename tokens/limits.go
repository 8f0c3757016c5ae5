package tokens

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultThreshold is the prompt size above which users are warned.
// It leaves headroom under the 128k window of current GPT-4 class models.
const DefaultThreshold = 120000

// ModelLimits contains context window sizes for common chat models.
// Keys are matched as prefixes of the model or deployment name, longest first.
var ModelLimits = map[string]int{
	"gpt-4.1":       1047576,
	"gpt-4o":        128000,
	"gpt-4-turbo":   128000,
	"gpt-4-32k":     32768,
	"gpt-4":         8192,
	"gpt-35-turbo":  16385,
	"gpt-3.5-turbo": 16385,
	"o1":            200000,
	"o3":            200000,
	"o4-mini":       200000,

	// Default fallback
	"default": 128000,
}

// GetModelLimit returns the context window for a model, or the default.
// Azure deployment names that start with a known model name resolve too.
func GetModelLimit(model string) int {
	if limit, ok := ModelLimits[model]; ok {
		return limit
	}
	best := ""
	for prefix := range ModelLimits {
		if prefix == "default" {
			continue
		}
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return ModelLimits[best]
	}
	return ModelLimits["default"]
}

// Formatted is a count prepared for display.
type Formatted struct {
	Count   int    `json:"count"`
	Text    string `json:"formatted"`
	Warning bool   `json:"warning"`
}

// Format renders count with thousands separators and flags counts above
// DefaultThreshold.
func Format(count int) Formatted {
	return FormatWithThreshold(count, DefaultThreshold)
}

// FormatWithThreshold is Format with an explicit warning threshold.
func FormatWithThreshold(count, threshold int) Formatted {
	return Formatted{
		Count:   count,
		Text:    humanize.Comma(int64(count)),
		Warning: count > threshold,
	}
}
