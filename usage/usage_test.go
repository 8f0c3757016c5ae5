package usage

import (
	"testing"

	"github.com/cabird/gpt-chrome-latex-ext/template"
	"github.com/cabird/gpt-chrome-latex-ext/tokens"
)

// byteCounter counts one token per byte so expected totals are obvious.
type byteCounter struct{}

func (byteCounter) Count(text string) int { return len(text) }

func (byteCounter) FitsInLimit(text string, limit int) bool { return len(text) <= limit }

func TestAggregator_Summarize(t *testing.T) {
	a := New(WithCounter(byteCounter{}), WithThreshold(100))

	f := template.Fields{Selection: "abc", Instruction: "de", Context: "f"}
	got := a.Summarize(f, "{{LATEX_TEXT}}|{{INSTRUCTIONS}}|{{CONTEXT}}")

	if got.SelectionTokens != 3 || got.InstructionTokens != 2 || got.ContextTokens != 1 {
		t.Errorf("field counts = %d/%d/%d, want 3/2/1",
			got.SelectionTokens, got.InstructionTokens, got.ContextTokens)
	}
	// "abc|de|f"
	if got.TotalTokens != 8 {
		t.Errorf("TotalTokens = %d, want 8", got.TotalTokens)
	}
	if got.Threshold != 100 {
		t.Errorf("Threshold = %d, want 100", got.Threshold)
	}
	if got.ExceedsThreshold {
		t.Error("ExceedsThreshold should be false")
	}
}

func TestAggregator_TotalCountsRenderedPrompt(t *testing.T) {
	a := New(WithCounter(byteCounter{}))

	f := template.Fields{Selection: "X", Instruction: "Y"}
	got := a.Summarize(f, "")

	want := len(template.RenderDefault("", f))
	if got.TotalTokens != want {
		t.Errorf("TotalTokens = %d, want %d", got.TotalTokens, want)
	}
	if sum := got.SelectionTokens + got.InstructionTokens + got.ContextTokens; got.TotalTokens == sum {
		t.Errorf("TotalTokens should include template text, got the field sum %d", sum)
	}
}

func TestAggregator_ContextOnlyCountedWhenReferenced(t *testing.T) {
	a := New(WithCounter(byteCounter{}))

	got := a.Summarize(template.Fields{Selection: "s", Context: "long context"}, "{{LATEX_TEXT}}")
	if got.ContextTokens != len("long context") {
		t.Errorf("ContextTokens = %d, want %d", got.ContextTokens, len("long context"))
	}
	if got.TotalTokens != 1 {
		t.Errorf("TotalTokens = %d, want 1", got.TotalTokens)
	}
}

func TestAggregator_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		selection string
		threshold int
		want      bool
	}{
		{"below", "1234", 5, false},
		{"exactly at threshold", "12345", 5, false},
		{"one over", "123456", 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(WithCounter(byteCounter{}), WithThreshold(tt.threshold))
			got := a.Summarize(template.Fields{Selection: tt.selection}, "{{LATEX_TEXT}}")
			if got.ExceedsThreshold != tt.want {
				t.Errorf("ExceedsThreshold = %v, want %v (total %d)", got.ExceedsThreshold, tt.want, got.TotalTokens)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	a := New(WithThreshold(0), WithThreshold(-3), WithCounter(nil))
	if a.Threshold() != tokens.DefaultThreshold {
		t.Errorf("Threshold() = %d, want %d", a.Threshold(), tokens.DefaultThreshold)
	}

	f := template.Fields{Selection: `\alpha + 1`, Instruction: "fix it"}
	got := a.Summarize(f, "")
	if want := tokens.EstimateTokens(template.RenderDefault("", f)); got.TotalTokens != want {
		t.Errorf("TotalTokens = %d, want heuristic count %d", got.TotalTokens, want)
	}
}

func TestSummarize_Deterministic(t *testing.T) {
	f := template.Fields{
		Selection:   `\begin{equation} E = mc^2 \end{equation}`,
		Instruction: "Explain this.",
		Context:     "Physics lecture notes",
	}
	first := Summarize(f, "{{CONTEXT}}\n{{LATEX_TEXT}}\n{{INSTRUCTIONS}}", 0)
	for i := 0; i < 5; i++ {
		if again := Summarize(f, "{{CONTEXT}}\n{{LATEX_TEXT}}\n{{INSTRUCTIONS}}", 0); again != first {
			t.Fatalf("Summarize() not deterministic: %+v vs %+v", again, first)
		}
	}
	if first.Threshold != tokens.DefaultThreshold {
		t.Errorf("Threshold = %d, want default", first.Threshold)
	}
}

func TestSummarize_EmptyFields(t *testing.T) {
	got := Summarize(template.Fields{}, "", 10)
	if got.SelectionTokens != 0 || got.InstructionTokens != 0 || got.ContextTokens != 0 {
		t.Errorf("empty fields should count zero, got %+v", got)
	}
	if got.TotalTokens == 0 {
		t.Error("default template text should still be counted")
	}
}

func TestSummarizeFields(t *testing.T) {
	a := New(WithCounter(byteCounter{}))
	got := a.SummarizeFields([]Field{
		{Role: RoleSelection, Text: "old"},
		{Role: RoleSelection, Text: "new!"},
		{Role: RoleInstruction, Text: "go"},
		{Role: "bogus", Text: "ignored"},
	}, "{{LATEX_TEXT}}{{INSTRUCTIONS}}")

	if got.SelectionTokens != 4 || got.InstructionTokens != 2 {
		t.Errorf("got %+v", got)
	}
	if got.TotalTokens != 6 {
		t.Errorf("TotalTokens = %d, want 6", got.TotalTokens)
	}
}

func TestSummary_Helpers(t *testing.T) {
	s := Summary{ContextTokens: 1, SelectionTokens: 2, InstructionTokens: 3, TotalTokens: 1500, Threshold: 1000, ExceedsThreshold: true}

	if got := s.Fields()[RoleInstruction]; got != 3 {
		t.Errorf("Fields()[instruction] = %d, want 3", got)
	}
	total := s.Total()
	if total.Text != "1,500" || !total.Warning {
		t.Errorf("Total() = %+v", total)
	}
	if got := s.Headroom(1200); got != -300 {
		t.Errorf("Headroom() = %d, want -300", got)
	}
}
