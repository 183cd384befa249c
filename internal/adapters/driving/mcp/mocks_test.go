package mcp

import (
	"context"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
)

// mockChunkingService is a mock implementation of driving.ChunkingService.
type mockChunkingService struct {
	chunks []domain.Chunk
	err    error
}

func (m *mockChunkingService) ChunkDocument(_ context.Context, _ *domain.Document) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

// mockEmbeddingService is a mock implementation of driving.EmbeddingService.
type mockEmbeddingService struct {
	batch *driving.BatchResult
	err   error
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, _ []driving.EmbedRequest) (*driving.BatchResult, error) {
	return m.batch, m.err
}

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	fitted domain.FittedContext
	opts   driving.FitOptions
}

func (m *mockContextService) Fit(_ []domain.SearchResult, opts driving.FitOptions) domain.FittedContext {
	m.opts = opts
	return m.fitted
}
