package mcp

import (
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chunking splits documents at semantic boundaries.
	Chunking driving.ChunkingService

	// Embedding resolves embedding vectors for texts.
	Embedding driving.EmbeddingService

	// Context fits ranked results into a token budget.
	Context driving.ContextService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chunking == nil {
		return ErrMissingChunkingService
	}
	if p.Embedding == nil {
		return ErrMissingEmbeddingService
	}
	if p.Context == nil {
		return ErrMissingContextService
	}
	return nil
}
