package mcp

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
)

// ChunkTextInput is the input schema for the chunk_text tool.
type ChunkTextInput struct {
	Text  string `json:"text" jsonschema:"the document text to split at semantic boundaries"`
	Title string `json:"title,omitempty" jsonschema:"optional document title"`
}

// ChunkTextOutput is the output schema for the chunk_text tool.
type ChunkTextOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput represents a single chunk.
type ChunkOutput struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Position   int    `json:"position"`
	StartUnit  int    `json:"start_unit"`
	EndUnit    int    `json:"end_unit"`
	CharCount  int    `json:"char_count"`
	TokenCount int    `json:"token_count"`
}

// EmbedTextsInput is the input schema for the embed_texts tool.
type EmbedTextsInput struct {
	Texts []string `json:"texts" jsonschema:"the texts to embed, in order"`
}

// EmbedTextsOutput is the output schema for the embed_texts tool.
type EmbedTextsOutput struct {
	Vectors     [][]float32 `json:"vectors"`
	Dimensions  int         `json:"dimensions"`
	Count       int         `json:"count"`
	CacheHits   int         `json:"cache_hits"`
	CacheMisses int         `json:"cache_misses"`
}

// FitContextInput is the input schema for the fit_context tool.
type FitContextInput struct {
	Results        []FitResultInput `json:"results" jsonschema:"ranked retrieval results, best first"`
	MaxTokens      int              `json:"max_tokens,omitempty" jsonschema:"context window budget in tokens (default from settings)"`
	ReservedTokens int              `json:"reserved_tokens,omitempty" jsonschema:"tokens held back for the prompt frame (default from settings, negative reserves nothing)"`
}

// FitResultInput represents one candidate result.
type FitResultInput struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Score  float64 `json:"score,omitempty"`
	Source string  `json:"source,omitempty"`
}

// FitContextOutput is the output schema for the fit_context tool.
type FitContextOutput struct {
	Included        []FitResultInput `json:"included"`
	ExcludedCount   int              `json:"excluded_count"`
	TokensUsed      int              `json:"tokens_used"`
	TokensAvailable int              `json:"tokens_available"`
	Truncated       bool             `json:"truncated"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunk_text",
		Description: "Split a document into semantically coherent chunks",
	}, s.handleChunkText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "embed_texts",
		Description: "Resolve embedding vectors for a batch of texts",
	}, s.handleEmbedTexts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fit_context",
		Description: "Fit ranked retrieval results into a token budget",
	}, s.handleFitContext)
}

// handleChunkText handles the chunk_text tool invocation.
func (s *Server) handleChunkText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChunkTextInput,
) (*mcp.CallToolResult, ChunkTextOutput, error) {
	doc := &domain.Document{
		ID:      uuid.NewString(),
		Title:   input.Title,
		Content: input.Text,
	}

	chunks, err := s.ports.Chunking.ChunkDocument(ctx, doc)
	if err != nil {
		return nil, ChunkTextOutput{}, err
	}

	output := ChunkTextOutput{
		Chunks: make([]ChunkOutput, len(chunks)),
		Count:  len(chunks),
	}
	for i := range chunks {
		output.Chunks[i] = ChunkOutput{
			ID:         chunks[i].ID,
			Content:    chunks[i].Content,
			Position:   chunks[i].Position,
			StartUnit:  chunks[i].StartUnit,
			EndUnit:    chunks[i].EndUnit,
			CharCount:  chunks[i].CharCount,
			TokenCount: chunks[i].TokenCount,
		}
	}

	return nil, output, nil
}

// handleEmbedTexts handles the embed_texts tool invocation.
func (s *Server) handleEmbedTexts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EmbedTextsInput,
) (*mcp.CallToolResult, EmbedTextsOutput, error) {
	requests := make([]driving.EmbedRequest, len(input.Texts))
	for i, text := range input.Texts {
		requests[i] = driving.EmbedRequest{
			ID:   strconv.Itoa(i),
			Text: text,
		}
	}

	batch, err := s.ports.Embedding.EmbedBatch(ctx, requests)
	if err != nil {
		return nil, EmbedTextsOutput{}, err
	}

	output := EmbedTextsOutput{
		Vectors:     make([][]float32, len(batch.Results)),
		Count:       len(batch.Results),
		CacheHits:   batch.CacheHits,
		CacheMisses: batch.CacheMisses,
	}
	for i := range batch.Results {
		output.Vectors[i] = batch.Results[i].Embedding
	}
	if len(output.Vectors) > 0 {
		output.Dimensions = len(output.Vectors[0])
	}

	return nil, output, nil
}

// handleFitContext handles the fit_context tool invocation.
func (s *Server) handleFitContext(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FitContextInput,
) (*mcp.CallToolResult, FitContextOutput, error) {
	results := make([]domain.SearchResult, len(input.Results))
	for i, r := range input.Results {
		results[i] = domain.SearchResult{
			ID:     r.ID,
			Text:   r.Text,
			Score:  r.Score,
			Source: r.Source,
		}
	}

	fitted := s.ports.Context.Fit(results, driving.FitOptions{
		MaxTokens:      input.MaxTokens,
		ReservedTokens: input.ReservedTokens,
	})

	output := FitContextOutput{
		Included:        make([]FitResultInput, len(fitted.Results)),
		ExcludedCount:   fitted.ExcludedCount,
		TokensUsed:      fitted.TokensUsed,
		TokensAvailable: fitted.TokensAvailable,
		Truncated:       fitted.Truncated,
	}
	for i := range fitted.Results {
		output.Included[i] = FitResultInput{
			ID:     fitted.Results[i].ID,
			Text:   fitted.Results[i].Text,
			Score:  fitted.Results[i].Score,
			Source: fitted.Results[i].Source,
		}
	}

	return nil, output, nil
}
