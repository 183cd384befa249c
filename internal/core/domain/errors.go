package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Cache adapters return it for missing or expired entries.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// Settings validation wraps this for out-of-bounds configuration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable indicates the embedding provider is not
	// configured. Chunking and embedding are disabled without it.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrCacheUnavailable indicates the embedding cache is not configured.
	// The batch client treats every lookup as a miss in that case.
	ErrCacheUnavailable = errors.New("embedding cache unavailable")

	// ErrDimensionMismatch indicates a provider returned vectors whose
	// length disagrees with an earlier vector in the same batch.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
