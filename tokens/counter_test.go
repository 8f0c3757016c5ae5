package tokens

import (
	"strings"
	"testing"
)

func TestHeuristicCounter_Count(t *testing.T) {
	c := NewHeuristicCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{
			name:     "empty string",
			text:     "",
			expected: 0,
		},
		{
			name:     "greeting with punctuation and number",
			text:     "Hello, world! 42",
			expected: 9, // 2 spaces + 2 punct + 1 number + 2 + 2 for the words
		},
		{
			name:     "whitespace only",
			text:     "   ",
			expected: 1,
		},
		{
			name:     "mixed whitespace is one run",
			text:     " \t\n ",
			expected: 1,
		},
		{
			name:     "short words",
			text:     "a b",
			expected: 3,
		},
		{
			name:     "three letter word",
			text:     "abc",
			expected: 1,
		},
		{
			name:     "five letter word",
			text:     "LaTeX",
			expected: 2, // ceil(5/4)
		},
		{
			name:     "six letter word",
			text:     "theory",
			expected: 2, // ceil(6/4)
		},
		{
			name:     "seven letter word",
			text:     "seventh",
			expected: 2, // ceil(7/3.5)
		},
		{
			name:     "long word",
			text:     "extraordinary",
			expected: 4, // ceil(13/3.5)
		},
		{
			name:     "latex command with braces",
			text:     `\frac{a}{b}`,
			expected: 7, // 4 braces + \frac + a + b
		},
		{
			name:     "latex commands in math",
			text:     `$\alpha + \beta$`,
			expected: 4, // 2 spaces + 2 commands; $ and + are not counted
		},
		{
			name:     "decimal number",
			text:     "3.14",
			expected: 2, // the dot is punctuation and the number is one run
		},
		{
			name:     "digits split words",
			text:     "x2y",
			expected: 3,
		},
		{
			name:     "non latin script",
			text:     "日本語",
			expected: 0,
		},
		{
			name:     "accented letter splits word",
			text:     "héllo",
			expected: 2, // "h" and "llo"
		},
		{
			name:     "no-break space counts as whitespace",
			text:     "a\u00a0b",
			expected: 3,
		},
		{
			name:     "all punctuation classes",
			text:     `.,!?;:'"()[]{}`,
			expected: 14,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Count(tt.text)
			if result != tt.expected {
				t.Errorf("Count(%q) = %d, expected %d", tt.text, result, tt.expected)
			}
		})
	}
}

func TestHeuristicCounter_Deterministic(t *testing.T) {
	c := NewHeuristicCounter()
	text := `We show that \(\sum_{i=1}^{n} x_i \leq 1.5\) holds for all n.`

	first := c.Count(text)
	for n := 0; n < 10; n++ {
		if got := c.Count(text); got != first {
			t.Fatalf("Count is not deterministic: %d then %d", first, got)
		}
	}
}

func TestHeuristicCounter_NeverNegative(t *testing.T) {
	c := NewHeuristicCounter()

	inputs := []string{
		"",
		"\x00\x01",
		"\xff\xfe invalid utf8",
		"🙂🙂🙂",
		strings.Repeat("\\", 50),
		"{{LATEX_TEXT}}",
		"—–…«»",
	}

	for _, in := range inputs {
		if got := c.Count(in); got < 0 {
			t.Errorf("Count(%q) = %d, expected non-negative", in, got)
		}
	}
}

func TestHeuristicCounter_AppendNeverDecreases(t *testing.T) {
	c := NewHeuristicCounter()

	base := "The proof of Lemma 2 follows"
	suffixes := []string{
		" directly",
		", and",
		" 17",
		` \cite`,
		" (see",
		" ",
	}

	prev := c.Count(base)
	text := base
	for _, s := range suffixes {
		text += s
		got := c.Count(text)
		if got < prev {
			t.Errorf("Count decreased from %d to %d after appending %q", prev, got, s)
		}
		prev = got
	}
}

func TestHeuristicCounter_FitsInLimit(t *testing.T) {
	c := NewHeuristicCounter()

	tests := []struct {
		name     string
		text     string
		limit    int
		expected bool
	}{
		{
			name:     "empty fits zero",
			text:     "",
			limit:    0,
			expected: true,
		},
		{
			name:     "fits exactly",
			text:     "Hello, world! 42",
			limit:    9,
			expected: true,
		},
		{
			name:     "one over",
			text:     "Hello, world! 42",
			limit:    8,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.FitsInLimit(tt.text, tt.limit)
			if result != tt.expected {
				t.Errorf("FitsInLimit(%q, %d) = %v, expected %v",
					tt.text, tt.limit, result, tt.expected)
			}
		})
	}
}

func TestWordTokens(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{4, 1},
		{5, 2},
		{6, 2},
		{7, 2},
		{8, 3},
		{14, 4},
		{15, 5},
	}

	for _, tt := range tests {
		if got := wordTokens(tt.n); got != tt.expected {
			t.Errorf("wordTokens(%d) = %d, expected %d", tt.n, got, tt.expected)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	// Convenience function should match the heuristic counter
	text := "Hello, world! 42"
	expected := NewHeuristicCounter().Count(text)

	result := EstimateTokens(text)
	if result != expected {
		t.Errorf("EstimateTokens(%q) = %d, expected %d", text, result, expected)
	}
}

func TestEstimateTokens_LargeText(t *testing.T) {
	text := strings.Repeat("Hello World ", 1000)

	// Each repetition: "Hello" (2) + space (1) + "World" (2) + space (1).
	// Adjacent spaces never merge because words separate them.
	result := EstimateTokens(text)
	if result != 6000 {
		t.Errorf("EstimateTokens for large text = %d, expected 6000", result)
	}
}

func TestNewEstimatingCounterWithRatio(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		expected float64
	}{
		{
			name:     "custom ratio",
			ratio:    3.0,
			expected: 3.0,
		},
		{
			name:     "zero ratio uses default",
			ratio:    0,
			expected: DefaultCharsPerToken,
		},
		{
			name:     "negative ratio uses default",
			ratio:    -1,
			expected: DefaultCharsPerToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEstimatingCounterWithRatio(tt.ratio)
			if c.CharsPerToken != tt.expected {
				t.Errorf("expected CharsPerToken %v, got %v", tt.expected, c.CharsPerToken)
			}
		})
	}
}

func TestEstimatingCounter_Count(t *testing.T) {
	c := NewEstimatingCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty string", "", 0},
		{"single character", "a", 0},
		{"four characters", "test", 1},
		{"hello world", "Hello World", 3},
		{"counts runes not bytes", "日本語日本語日本", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Count(tt.text)
			if result != tt.expected {
				t.Errorf("Count(%q) = %d, expected %d", tt.text, result, tt.expected)
			}
		})
	}
}

func TestCounter_Interface(t *testing.T) {
	var _ Counter = (*HeuristicCounter)(nil)
	var _ Counter = (*EstimatingCounter)(nil)
}

func BenchmarkHeuristicCounter_Count(b *testing.B) {
	c := NewHeuristicCounter()
	text := strings.Repeat(`Let \(f\colon X \to Y\) be continuous, with 0.5 < t. `, 100)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		c.Count(text)
	}
}
