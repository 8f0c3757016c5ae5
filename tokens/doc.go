// Package tokens provides approximate token counting for prompts.
//
// Counting is an estimate, not a tokenizer. The canonical HeuristicCounter
// charges whitespace runs, punctuation, LaTeX commands and numbers one token
// each and charges the remaining words by length, approximating how GPT
// tokenizers split text without shipping a vocabulary.
//
// # Counter
//
//	counter := tokens.NewHeuristicCounter()
//	count := counter.Count("Hello, world! 42")  // 9
//	fits := counter.FitsInLimit(text, 1000)     // true if <= 1000 tokens
//
// For one-off counting:
//
//	count := tokens.EstimateTokens(`\frac{a}{b}`)
//
// EstimatingCounter is a cheaper chars-per-token estimator. For exact counts
// against a BPE vocabulary, see the vocab subpackage.
//
// # Display
//
//	f := tokens.Format(123456)  // {Count: 123456, Text: "123,456", Warning: true}
//
// # Model Limits
//
//	limit := tokens.GetModelLimit("gpt-4o-mini")  // 128000 (prefix match)
//	limit := tokens.GetModelLimit("unknown")      // 128000 (default)
package tokens
