// Package tokenizer provides token counting for chunk sizing. The default
// estimator is a deterministic word-count heuristic so corpus builds are
// reproducible; a tiktoken-backed counter is available where exact model
// token counts matter (corpus metadata totals).
package tokenizer

import (
	"math"
	"strings"
)

// WordsPerToken is the fixed word-to-token ratio used by the estimator.
const WordsPerToken = 0.75

// Counter counts tokens in text.
type Counter interface {
	CountTokens(text string) int
}

// Estimator approximates token counts from whitespace-delimited word counts.
type Estimator struct{}

var _ Counter = Estimator{}

// CountTokens approximates the token count of text: word count divided by
// 0.75, rounded up. Empty or all-whitespace text yields 0.
func (Estimator) CountTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerToken))
}

// Estimate is a convenience wrapper around the default estimator.
func Estimate(text string) int {
	return Estimator{}.CountTokens(text)
}
