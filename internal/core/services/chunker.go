package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragctx-cli/internal/logger"
)

// Ensure SemanticChunker implements the interface.
var _ driving.ChunkingService = (*SemanticChunker)(nil)

// SemanticChunker transforms documents into semantically coherent chunks
// using two passes over the embedding space: Pass 1 flags candidate
// boundaries from adjacent-unit similarity, Pass 2 merges undersized
// chunks and force-splits oversized ones.
type SemanticChunker struct {
	embedder  driving.EmbeddingService
	settings  domain.ChunkingSettings
	estimator domain.TokenEstimator
}

// NewSemanticChunker creates a semantic chunker. Settings are validated
// at construction and never clamped.
func NewSemanticChunker(embedder driving.EmbeddingService, settings domain.Settings) (*SemanticChunker, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, domain.ErrProviderUnavailable
	}
	return &SemanticChunker{
		embedder:  embedder,
		settings:  settings.Chunking,
		estimator: domain.NewTokenEstimator(settings.Context.CharsPerToken),
	}, nil
}

// unitSpan is a half-open range [start, end) of TextUnit indices making up
// one prospective chunk.
type unitSpan struct {
	start int
	end   int
}

// ChunkDocument segments the document into TextUnits, embeds them,
// detects boundaries and returns the final chunks. An embedding failure
// for any unit fails the whole document: boundary decisions are not
// meaningful with missing vectors.
func (c *SemanticChunker) ChunkDocument(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	logger.Section("Semantic Chunking")
	units := segmentUnits(doc)
	logger.Debug("Document %s: %d units", doc.ID, len(units))
	if len(units) == 0 {
		return nil, nil
	}

	vectors, err := c.embedUnits(ctx, units)
	if err != nil {
		return nil, fmt.Errorf("embed units: %w", err)
	}

	scores := boundaryScores(vectors)
	candidates := candidateBoundaries(scores, c.settings.ThresholdMultiplier)
	logger.Debug("Pass 1: %d candidate boundaries from %d gaps", len(candidates), len(scores))

	spans := buildSpans(len(units), candidates)
	spans = c.mergeShortSpans(spans, units)
	spans = c.splitLongSpans(spans, units, scores)
	logger.Debug("Pass 2: %d chunks after merge/split", len(spans))

	chunks := make([]domain.Chunk, 0, len(spans))
	for _, span := range spans {
		if span.end-span.start == 1 && spanLength(span, units) > c.settings.MaxChunkSize {
			// A single unit longer than the maximum cannot be cut at
			// unit granularity; hard-split it at fixed-size points.
			chunks = c.appendHardSplit(chunks, doc.ID, span, units, vectors)
			continue
		}
		chunks = append(chunks, c.buildChunk(doc.ID, len(chunks), span, units, vectors))
	}

	return chunks, nil
}

// embedUnits resolves one vector per unit, preserving unit order.
func (c *SemanticChunker) embedUnits(ctx context.Context, units []domain.TextUnit) ([][]float32, error) {
	requests := make([]driving.EmbedRequest, len(units))
	for i, u := range units {
		requests[i] = driving.EmbedRequest{Text: u.Text}
	}

	batch, err := c.embedder.EmbedBatch(ctx, requests)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(units))
	for i := range batch.Results {
		vectors[i] = batch.Results[i].Embedding
	}
	return vectors, nil
}

// mergeShortSpans merges any span shorter than the configured minimum into
// an adjacent span: the shorter neighbour, or the following span on a tie.
func (c *SemanticChunker) mergeShortSpans(spans []unitSpan, units []domain.TextUnit) []unitSpan {
	for len(spans) > 1 {
		merged := false
		for i := range spans {
			if spanLength(spans[i], units) >= c.settings.MinChunkSize {
				continue
			}

			target := i + 1
			switch {
			case i == 0:
				target = 1
			case i == len(spans)-1:
				target = i - 1
			default:
				prevLen := spanLength(spans[i-1], units)
				nextLen := spanLength(spans[i+1], units)
				if prevLen < nextLen {
					target = i - 1
				}
			}

			spans = mergeSpans(spans, i, target)
			merged = true
			break
		}
		if !merged {
			break
		}
	}
	return spans
}

// splitLongSpans force-splits any span longer than the configured maximum
// at its strongest remaining internal boundary (the internal gap with the
// lowest similarity). Single-unit spans that still exceed the maximum pass
// through unchanged; the build step hard-splits them at fixed-size points.
func (c *SemanticChunker) splitLongSpans(
	spans []unitSpan, units []domain.TextUnit, scores []domain.BoundaryScore,
) []unitSpan {
	var out []unitSpan
	queue := append([]unitSpan(nil), spans...)

	for len(queue) > 0 {
		span := queue[0]
		queue = queue[1:]

		if spanLength(span, units) <= c.settings.MaxChunkSize || span.end-span.start <= 1 {
			out = append(out, span)
			continue
		}

		cut := strongestInternalGap(span, scores)
		// Split after the cut gap and re-examine both halves.
		queue = append([]unitSpan{
			{start: span.start, end: cut + 1},
			{start: cut + 1, end: span.end},
		}, queue...)
	}

	return out
}

// buildChunk assembles the final chunk for a span: concatenated text,
// mean vector and size metadata.
func (c *SemanticChunker) buildChunk(
	docID string, position int, span unitSpan, units []domain.TextUnit, vectors [][]float32,
) domain.Chunk {
	texts := make([]string, 0, span.end-span.start)
	for i := span.start; i < span.end; i++ {
		texts = append(texts, units[i].Text)
	}
	content := strings.Join(texts, " ")

	return domain.Chunk{
		ID:         uuid.New().String(),
		DocumentID: docID,
		Content:    content,
		Position:   position,
		StartUnit:  span.start,
		EndUnit:    span.end,
		Embedding:  meanVector(vectors[span.start:span.end]),
		CharCount:  utf8.RuneCountInString(content),
		TokenCount: c.estimator.Estimate(content),
	}
}

// appendHardSplit splits a single oversized unit at fixed-size points.
// Every piece shares the unit's vector.
func (c *SemanticChunker) appendHardSplit(
	chunks []domain.Chunk, docID string, span unitSpan, units []domain.TextUnit, vectors [][]float32,
) []domain.Chunk {
	runes := []rune(units[span.start].Text)
	for offset := 0; offset < len(runes); offset += c.settings.MaxChunkSize {
		end := offset + c.settings.MaxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		content := string(runes[offset:end])
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: docID,
			Content:    content,
			Position:   len(chunks),
			StartUnit:  span.start,
			EndUnit:    span.end,
			Embedding:  meanVector(vectors[span.start:span.end]),
			CharCount:  utf8.RuneCountInString(content),
			TokenCount: c.estimator.Estimate(content),
		})
	}
	return chunks
}

// segmentUnits splits document content into sentence-scale TextUnits with
// byte offsets into the original content.
func segmentUnits(doc *domain.Document) []domain.TextUnit {
	content := doc.Content
	var units []domain.TextUnit
	start := 0

	flush := func(end int) {
		raw := content[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			units = append(units, domain.TextUnit{
				DocumentID: doc.ID,
				Index:      len(units),
				Start:      start + lead,
				End:        start + lead + len(trimmed),
				Text:       trimmed,
			})
		}
		start = end
	}

	for i, r := range content {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			flush(i + utf8.RuneLen(r))
		}
	}
	flush(len(content))

	return units
}

// boundaryScores computes the cosine similarity across each gap between
// consecutive unit vectors.
func boundaryScores(vectors [][]float32) []domain.BoundaryScore {
	if len(vectors) < 2 {
		return nil
	}
	scores := make([]domain.BoundaryScore, len(vectors)-1)
	for i := 0; i < len(vectors)-1; i++ {
		scores[i] = domain.BoundaryScore{
			Gap:        i,
			Similarity: cosineSimilarity(vectors[i], vectors[i+1]),
		}
	}
	return scores
}

// buildSpans turns candidate boundary gaps into unit spans. A boundary at
// gap i cuts between unit i and unit i+1.
func buildSpans(unitCount int, boundaries []int) []unitSpan {
	cut := make(map[int]bool, len(boundaries))
	for _, g := range boundaries {
		cut[g] = true
	}

	var spans []unitSpan
	start := 0
	for i := 0; i < unitCount-1; i++ {
		if cut[i] {
			spans = append(spans, unitSpan{start: start, end: i + 1})
			start = i + 1
		}
	}
	spans = append(spans, unitSpan{start: start, end: unitCount})
	return spans
}

// strongestInternalGap returns the internal gap of the span with the
// lowest similarity.
func strongestInternalGap(span unitSpan, scores []domain.BoundaryScore) int {
	best := span.start
	for g := span.start; g < span.end-1; g++ {
		if scores[g].Similarity < scores[best].Similarity {
			best = g
		}
	}
	return best
}

// mergeSpans merges spans[i] into spans[target] (which must be adjacent)
// and returns the shortened slice.
func mergeSpans(spans []unitSpan, i, target int) []unitSpan {
	lo, hi := i, target
	if target < i {
		lo, hi = target, i
	}
	spans[lo] = unitSpan{start: spans[lo].start, end: spans[hi].end}
	return append(spans[:hi], spans[hi+1:]...)
}

// spanLength is the character length of the span's concatenated text,
// counting the joining spaces.
func spanLength(span unitSpan, units []domain.TextUnit) int {
	length := 0
	for i := span.start; i < span.end; i++ {
		if i > span.start {
			length++
		}
		length += utf8.RuneCountInString(units[i].Text)
	}
	return length
}

// meanVector returns the arithmetic mean of the vectors.
func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil
	}
	sum := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i, x := range v {
			sum[i] += float64(x)
		}
	}
	mean := make([]float32, len(sum))
	for i, x := range sum {
		mean[i] = float32(x / float64(len(vectors)))
	}
	return mean
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors yield zero similarity.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
