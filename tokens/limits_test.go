package tokens

import "testing"

func TestGetModelLimit(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		expected int
	}{
		{
			name:     "exact gpt-4o",
			model:    "gpt-4o",
			expected: 128000,
		},
		{
			name:     "prefix picks longest match",
			model:    "gpt-4o-mini",
			expected: 128000,
		},
		{
			name:     "gpt-4 32k",
			model:    "gpt-4-32k-0613",
			expected: 32768,
		},
		{
			name:     "plain gpt-4",
			model:    "gpt-4-0613",
			expected: 8192,
		},
		{
			name:     "azure style gpt-35",
			model:    "gpt-35-turbo-16k",
			expected: 16385,
		},
		{
			name:     "unknown deployment gets default",
			model:    "my-latex-deployment",
			expected: 128000,
		},
		{
			name:     "empty model gets default",
			model:    "",
			expected: 128000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetModelLimit(tt.model)
			if result != tt.expected {
				t.Errorf("GetModelLimit(%q) = %d, expected %d", tt.model, result, tt.expected)
			}
		})
	}
}

func TestModelLimits_AllPositive(t *testing.T) {
	for model, limit := range ModelLimits {
		if limit <= 0 {
			t.Errorf("ModelLimits[%q] = %d, should be positive", model, limit)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		wantText string
		wantWarn bool
	}{
		{"zero", 0, "0", false},
		{"small", 987, "987", false},
		{"thousands", 12345, "12,345", false},
		{"at threshold", DefaultThreshold, "120,000", false},
		{"over threshold", DefaultThreshold + 1, "120,001", true},
		{"millions", 1234567, "1,234,567", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.count)
			if got.Count != tt.count {
				t.Errorf("Count = %d, expected %d", got.Count, tt.count)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, expected %q", got.Text, tt.wantText)
			}
			if got.Warning != tt.wantWarn {
				t.Errorf("Warning = %v, expected %v", got.Warning, tt.wantWarn)
			}
		})
	}
}

func TestFormatWithThreshold(t *testing.T) {
	if got := FormatWithThreshold(11, 10); !got.Warning {
		t.Error("expected warning above custom threshold")
	}
	if got := FormatWithThreshold(10, 10); got.Warning {
		t.Error("expected no warning at custom threshold")
	}
}
