package driven

import "context"

// EmbeddingProvider generates vector embeddings from text.
//
// Note: this is the raw remote provider. Deduplication, caching, batching
// and retry live in the embedding service that wraps it; adapters only
// translate one provider API call.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingProvider interface {
	// EmbedBatch generates one embedding per text, in input order.
	// The service guarantees len(texts) never exceeds the configured
	// batch size.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the provider is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
