package model

import "strings"

// ModelName represents a normalized model family name.
type ModelName string

// GPT-4 generation families.
const (
	ModelGPT41     ModelName = "gpt-4.1"
	ModelGPT41Mini ModelName = "gpt-4.1-mini"
	ModelGPT41Nano ModelName = "gpt-4.1-nano"
	ModelGPT4o     ModelName = "gpt-4o"
	ModelGPT4oMini ModelName = "gpt-4o-mini"
	ModelGPT4Turbo ModelName = "gpt-4-turbo"
	ModelGPT4      ModelName = "gpt-4"
	ModelGPT35     ModelName = "gpt-3.5-turbo"
)

// Reasoning model families.
const (
	ModelO1     ModelName = "o1"
	ModelO3Mini ModelName = "o3-mini"
	ModelO4Mini ModelName = "o4-mini"
)

// familyPatterns is checked in order; longer, more specific names first.
var familyPatterns = []struct {
	substr string
	family ModelName
}{
	{"gpt-4.1-nano", ModelGPT41Nano},
	{"gpt-4.1-mini", ModelGPT41Mini},
	{"gpt-4.1", ModelGPT41},
	{"gpt-4o-mini", ModelGPT4oMini},
	{"gpt-4o", ModelGPT4o},
	{"gpt-4-turbo", ModelGPT4Turbo},
	{"gpt-4", ModelGPT4},
	{"gpt-3.5", ModelGPT35},
}

// reasoningPrefixes match o-series names, which are too short to search
// for anywhere in a string.
var reasoningPrefixes = []struct {
	prefix string
	family ModelName
}{
	{"o4-mini", ModelO4Mini},
	{"o3-mini", ModelO3Mini},
	{"o1", ModelO1},
}

// NormalizeModelName converts a full model identifier to its family.
// For example, "gpt-4o-2024-08-06" becomes "gpt-4o" and the Azure spelling
// "gpt-35-turbo-16k" becomes "gpt-3.5-turbo". Deployment names that embed a
// family ("prod-gpt-4o-mini") resolve to it. Anything else is returned as-is.
func NormalizeModelName(name string) ModelName {
	lower := strings.ToLower(strings.TrimSpace(name))
	// Azure drops the dot from 3.5.
	lower = strings.ReplaceAll(lower, "gpt-35", "gpt-3.5")

	for _, p := range familyPatterns {
		if strings.Contains(lower, p.substr) {
			return p.family
		}
	}
	for _, p := range reasoningPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return p.family
		}
	}
	return ModelName(name)
}

// IsKnown reports whether name normalizes to a family with pricing.
func IsKnown(name string) bool {
	_, ok := ModelPrices[NormalizeModelName(name)]
	return ok
}
