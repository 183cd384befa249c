package domain

import "unicode/utf8"

// DefaultCharsPerToken is the estimated average characters per token.
// ~4 characters per token is the common heuristic for English prose.
const DefaultCharsPerToken = 4

// TokenEstimator approximates token counts from text length using a fixed
// characters-per-token ratio. This is a known approximation, not a real
// tokenizer: it is cheap, deterministic, and close enough for budgeting.
type TokenEstimator struct {
	charsPerToken int
}

// NewTokenEstimator creates a token estimator with the given ratio.
// Non-positive ratios fall back to DefaultCharsPerToken.
func NewTokenEstimator(charsPerToken int) TokenEstimator {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return TokenEstimator{charsPerToken: charsPerToken}
}

// Estimate returns the approximate token count for the text,
// computed as ceil(runeCount / charsPerToken). Empty text yields zero.
func (e TokenEstimator) Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + e.charsPerToken - 1) / e.charsPerToken
}

// CharsPerToken returns the configured ratio.
func (e TokenEstimator) CharsPerToken() int {
	return e.charsPerToken
}
