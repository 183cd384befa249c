package services

import (
	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragctx-cli/internal/logger"
)

// Ensure ContextFitter implements the interface.
var _ driving.ContextService = (*ContextFitter)(nil)

// ContextFitter packs ranked search results into a bounded token budget.
// It is a pure packing step: results are consumed in the order provided
// and never re-sorted.
type ContextFitter struct {
	settings  domain.ContextSettings
	estimator domain.TokenEstimator
}

// NewContextFitter creates a context fitter. Settings are validated at
// construction and never clamped.
func NewContextFitter(settings domain.Settings) (*ContextFitter, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &ContextFitter{
		settings:  settings.Context,
		estimator: domain.NewTokenEstimator(settings.Context.CharsPerToken),
	}, nil
}

// Fit greedily selects results until the budget is exhausted. Each result
// is included whole or not at all; once a result does not fit, the scan
// continues so every result is classified as included or excluded.
// A non-positive budget yields an empty fitted context, not an error.
func (f *ContextFitter) Fit(results []domain.SearchResult, opts driving.FitOptions) domain.FittedContext {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.settings.MaxTokens
	}
	reserved := opts.ReservedTokens
	if reserved == 0 {
		reserved = f.settings.ReservedTokens
	} else if reserved < 0 {
		reserved = 0
	}

	budget := maxTokens - reserved
	if budget < 0 {
		budget = 0
	}

	logger.Section("Context Fitting")
	logger.Debug("Budget: %d tokens (%d max - %d reserved), %d candidates",
		budget, maxTokens, reserved, len(results))

	fitted := domain.FittedContext{
		Results:         make([]domain.SearchResult, 0, len(results)),
		TokensAvailable: budget,
	}

	remaining := budget
	for i := range results {
		cost := f.estimator.Estimate(results[i].Text)
		if cost <= remaining {
			fitted.Results = append(fitted.Results, results[i])
			remaining -= cost
			continue
		}
		fitted.ExcludedCount++
	}

	fitted.TokensUsed = budget - remaining
	fitted.Truncated = fitted.ExcludedCount > 0

	logger.Debug("Fitted %d results, excluded %d, used %d/%d tokens",
		len(fitted.Results), fitted.ExcludedCount, fitted.TokensUsed, budget)

	return fitted
}
