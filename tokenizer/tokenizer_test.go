package tokenizer

import (
	"strings"
	"testing"
)

func TestEstimateEmpty(t *testing.T) {
	if got := Estimate(""); got != 0 {
		t.Fatalf("expected 0 tokens for empty string, got %d", got)
	}
	if got := Estimate("   \n\t  "); got != 0 {
		t.Fatalf("expected 0 tokens for whitespace, got %d", got)
	}
}

func TestEstimateRatio(t *testing.T) {
	// 3 words / 0.75 = 4 tokens exactly.
	if got := Estimate("churn is expensive"); got != 4 {
		t.Fatalf("expected 4 tokens for 3 words, got %d", got)
	}
	// 5 words / 0.75 = 6.67 -> 7 rounded up.
	if got := Estimate("churn is very expensive indeed"); got != 7 {
		t.Fatalf("expected 7 tokens for 5 words, got %d", got)
	}
}

func TestEstimateMonotonic(t *testing.T) {
	prev := 0
	for words := 1; words <= 50; words++ {
		text := strings.Repeat("word ", words)
		got := Estimate(text)
		if got < prev {
			t.Fatalf("estimate decreased at %d words: %d < %d", words, got, prev)
		}
		prev = got
	}
}
