package driven

import "context"

// EmbeddingCache stores embedding vectors keyed by a content hash of the
// normalised text plus model identifier.
//
// Implementations own their entries and evict autonomously: capacity is
// enforced with least-recently-used eviction and entries past their
// time-to-live are treated as absent. Concurrent reads and writes must not
// corrupt entries; last-writer-wins is acceptable.
type EmbeddingCache interface {
	// Get retrieves a cached vector. Returns domain.ErrNotFound for a
	// missing or expired entry. A hit updates the entry's recency.
	Get(ctx context.Context, key string) ([]float32, error)

	// Put stores a vector, evicting the least-recently-used entry if the
	// cache is at capacity.
	Put(ctx context.Context, key string, vector []float32) error

	// Len returns the current entry count.
	Len(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
