// Package truncate shortens text to a token budget.
//
// Its main use is FitContext, which cuts the optional context field of a
// prompt so the rendered prompt fits a model's context window. The
// selection and instruction are never cut.
//
// # Strategies
//
//   - FromEnd: keep the beginning
//   - FromMiddle: keep the beginning and the end
//   - FromStart: keep the end
//
// Removed text is replaced by a marker line, a LaTeX comment by default, so
// the result still reads as LaTeX:
//
//	tr := truncate.New(truncate.FromStart, truncate.WithLineBoundary())
//	text, cut := tr.Truncate(preamble, 2000)
//
// Lengths are measured in runes; multi-byte characters are never split.
package truncate
