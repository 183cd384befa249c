package driving

import (
	"context"
	"time"
)

// EmbedRequest asks for one text to be embedded. ID is optional caller
// bookkeeping echoed back on the matching result.
type EmbedRequest struct {
	// Text is the content to embed.
	Text string

	// ID is an optional caller-assigned identifier.
	ID string
}

// EmbedResult is one resolved embedding.
type EmbedResult struct {
	// ID echoes the request ID.
	ID string

	// Embedding is the resolved vector.
	Embedding []float32

	// FromCache is true when the vector was served from the cache.
	FromCache bool
}

// BatchResult is the outcome of one EmbedBatch call.
// Results order matches request order exactly, including duplicates.
type BatchResult struct {
	// Results holds one entry per request, in request order.
	Results []EmbedResult

	// CacheHits counts distinct texts served from the cache.
	CacheHits int

	// CacheMisses counts distinct texts resolved remotely.
	CacheMisses int

	// Retries counts remote call retries across all sub-batches.
	Retries int

	// TotalTime is the wall-clock duration of the call.
	TotalTime time.Duration
}

// EmbeddingService resolves embedding vectors with deduplication, caching,
// batching and retry on top of a remote provider.
type EmbeddingService interface {
	// EmbedBatch resolves one vector per request. A provider error that
	// survives all retries fails the whole call; callers must not assume
	// partial completion.
	EmbedBatch(ctx context.Context, requests []EmbedRequest) (*BatchResult, error)
}
