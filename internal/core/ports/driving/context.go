package driving

import "github.com/custodia-labs/ragctx-cli/internal/core/domain"

// FitOptions overrides the configured token budget for one fit call.
// Zero values use the configured defaults.
type FitOptions struct {
	// MaxTokens is the context window budget.
	MaxTokens int

	// ReservedTokens is the budget reserved for the prompt frame.
	// Pass a negative value to reserve nothing.
	ReservedTokens int
}

// ContextService packs ranked search results into a bounded token budget.
type ContextService interface {
	// Fit greedily selects results in the order provided until the budget
	// is exhausted. It never re-sorts: callers pre-sort by combined
	// relevance. A non-positive budget yields an empty fitted context.
	Fit(results []domain.SearchResult, opts FitOptions) domain.FittedContext
}
