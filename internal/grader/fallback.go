package grader

import "strings"

// FallbackScorer produces a grade from the raw judge text when structured
// parsing fails. It defines the quality floor: grading degrades instead of
// erroring on judge malformation.
type FallbackScorer interface {
	Score(raw string) (score float64, passed bool)
}

// KeywordFallback scans the raw judge text for success-indicating tokens and
// assigns 0.7 if any are present, 0.3 otherwise.
type KeywordFallback struct{}

func (KeywordFallback) Score(raw string) (float64, bool) {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "passed") || strings.Contains(lower, "success") {
		return 0.7, true
	}
	return 0.3, false
}
