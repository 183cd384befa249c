package domain

// SearchResult is an externally produced candidate for context assembly.
// The similarity search that ranks candidates lives outside this module;
// results arrive already ordered by combined relevance and are immutable
// inputs to the fitter.
type SearchResult struct {
	// ID identifies the underlying chunk or document.
	ID string

	// Text is the candidate content.
	Text string

	// Score is the combined relevance score assigned upstream.
	Score float64

	// Source is the display name of the originating source.
	Source string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any
}

// FittedContext is the output of a fit call: the subset of results that
// fit the token budget, plus usage metadata. It is created once per fit
// and never mutated afterwards.
type FittedContext struct {
	// Results are the included results in their original relevance order.
	Results []SearchResult

	// ExcludedCount is the number of results that did not fit.
	ExcludedCount int

	// TokensUsed is the estimated token cost of the included results.
	TokensUsed int

	// TokensAvailable is the budget the fit ran against
	// (max tokens minus reserved tokens, floored at zero).
	TokensAvailable int

	// Truncated is true when any result was excluded.
	Truncated bool
}
