package driving

import (
	"context"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
)

// ChunkingService splits documents into semantically coherent chunks.
type ChunkingService interface {
	// ChunkDocument segments the document, embeds the units, detects
	// boundaries and returns the final chunks with aggregate vectors.
	// An embedding failure for any unit fails the whole document.
	ChunkDocument(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
