// Package mcp provides an MCP (Model Context Protocol) server adapter for
// ragctx. It lets AI assistants chunk documents, resolve embeddings and fit
// retrieval results into a context window over the MCP wire protocol.
package mcp

import "errors"

// Errors returned when required services are not provided.
var (
	ErrMissingChunkingService  = errors.New("mcp: chunking service is required")
	ErrMissingEmbeddingService = errors.New("mcp: embedding service is required")
	ErrMissingContextService   = errors.New("mcp: context service is required")
)
