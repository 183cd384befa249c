package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
)

// mockEmbedder implements driving.EmbeddingService with canned vectors.
type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, requests []driving.EmbedRequest) (*driving.BatchResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	result := &driving.BatchResult{
		Results: make([]driving.EmbedResult, len(requests)),
	}
	for i, req := range requests {
		v, ok := m.vectors[req.Text]
		if !ok {
			v = []float32{1, 0}
		}
		result.Results[i] = driving.EmbedResult{ID: req.ID, Embedding: v}
	}
	return result, nil
}

// unitVector returns the 2D unit vector at the given angle in radians.
func unitVector(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func chunkerSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.Chunking.MinChunkSize = 1
	s.Chunking.MaxChunkSize = 10000
	return s
}

func TestNewSemanticChunker_Validation(t *testing.T) {
	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSemanticChunker(nil, chunkerSettings())
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})

	t.Run("invalid settings", func(t *testing.T) {
		s := chunkerSettings()
		s.Chunking.MinChunkSize = 0
		_, err := NewSemanticChunker(&mockEmbedder{}, s)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestChunkDocument_EmptyDocument(t *testing.T) {
	c, err := NewSemanticChunker(&mockEmbedder{}, chunkerSettings())
	require.NoError(t, err)

	chunks, err := c.ChunkDocument(context.Background(), &domain.Document{ID: "d1", Content: "   \n  "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkDocument_SingleUnit(t *testing.T) {
	c, err := NewSemanticChunker(&mockEmbedder{}, chunkerSettings())
	require.NoError(t, err)

	chunks, err := c.ChunkDocument(context.Background(), &domain.Document{ID: "d1", Content: "One lonely sentence."})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "One lonely sentence.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartUnit)
	assert.Equal(t, 1, chunks[0].EndUnit)
}

func TestChunkDocument_BoundaryAtLowSimilarityGap(t *testing.T) {
	// Three units with gap similarities ~0.9 and ~0.2: the second gap is
	// a boundary, yielding {unit1, unit2} and {unit3}.
	s1 := "The cat sat on the mat."
	s2 := "Dogs are loyal animals."
	s3 := "Quantum physics is strange."

	a2 := math.Acos(0.9)
	a3 := a2 + math.Acos(0.2)
	emb := &mockEmbedder{vectors: map[string][]float32{
		s1: unitVector(0),
		s2: unitVector(a2),
		s3: unitVector(a3),
	}}

	c, err := NewSemanticChunker(emb, chunkerSettings())
	require.NoError(t, err)

	chunks, err := c.ChunkDocument(context.Background(), &domain.Document{
		ID:      "d1",
		Content: s1 + " " + s2 + " " + s3,
	})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, s1+" "+s2, chunks[0].Content)
	assert.Equal(t, s3, chunks[1].Content)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 1, chunks[1].Position)
	assert.Equal(t, "d1", chunks[0].DocumentID)
	assert.NotEmpty(t, chunks[0].ID)
	assert.Greater(t, chunks[0].TokenCount, 0)
	assert.Equal(t, len(s1+" "+s2), chunks[0].CharCount)
}

func TestChunkDocument_MergesShortChunks(t *testing.T) {
	// Dissimilar units produce boundaries everywhere, but a large minimum
	// chunk size merges them all back into one chunk.
	s1 := "Alpha."
	s2 := "Bravo."
	s3 := "Charlie."
	emb := &mockEmbedder{vectors: map[string][]float32{
		s1: unitVector(0),
		s2: unitVector(math.Pi / 2),
		s3: unitVector(math.Pi),
	}}

	s := chunkerSettings()
	s.Chunking.MinChunkSize = 1000
	s.Chunking.MaxChunkSize = 5000

	c, err := NewSemanticChunker(emb, s)
	require.NoError(t, err)

	chunks, err := c.ChunkDocument(context.Background(), &domain.Document{
		ID:      "d1",
		Content: s1 + " " + s2 + " " + s3,
	})
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, s1+" "+s2+" "+s3, chunks[0].Content)
	assert.Equal(t, 3, chunks[0].UnitCount())
}

func TestChunkDocument_ForceSplitsLongChunks(t *testing.T) {
	// Identical vectors produce no boundaries; a small maximum forces
	// splits at unit gaps.
	s1 := "First sentence here."
	s2 := "Second sentence here."
	s3 := "Third sentence here."
	emb := &mockEmbedder{vectors: map[string][]float32{}}

	s := chunkerSettings()
	s.Chunking.MinChunkSize = 5
	s.Chunking.MaxChunkSize = 25

	c, err := NewSemanticChunker(emb, s)
	require.NoError(t, err)

	chunks, err := c.ChunkDocument(context.Background(), &domain.Document{
		ID:      "d1",
		Content: s1 + " " + s2 + " " + s3,
	})
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, s1, chunks[0].Content)
	assert.Equal(t, s2, chunks[1].Content)
	assert.Equal(t, s3, chunks[2].Content)
}

func TestChunkDocument_HardSplitsOversizedUnit(t *testing.T) {
	long := strings.Repeat("x", 50) + "."
	emb := &mockEmbedder{vectors: map[string][]float32{}}

	s := chunkerSettings()
	s.Chunking.MinChunkSize = 1
	s.Chunking.MaxChunkSize = 20

	c, err := NewSemanticChunker(emb, s)
	require.NoError(t, err)

	chunks, err := c.ChunkDocument(context.Background(), &domain.Document{ID: "d1", Content: long})
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, 20, chunks[0].CharCount)
	assert.Equal(t, 20, chunks[1].CharCount)
	assert.Equal(t, 11, chunks[2].CharCount)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
	}
}

func TestChunkDocument_EmbeddingFailureIsAtomic(t *testing.T) {
	emb := &mockEmbedder{err: errors.New("provider down")}

	c, err := NewSemanticChunker(emb, chunkerSettings())
	require.NoError(t, err)

	chunks, err := c.ChunkDocument(context.Background(), &domain.Document{
		ID:      "d1",
		Content: "One. Two. Three.",
	})
	require.Error(t, err)
	assert.Nil(t, chunks)
}

func TestChunkDocument_Idempotent(t *testing.T) {
	s1 := "The cat sat on the mat."
	s2 := "Dogs are loyal animals."
	s3 := "Quantum physics is strange."
	a2 := math.Acos(0.9)
	emb := &mockEmbedder{vectors: map[string][]float32{
		s1: unitVector(0),
		s2: unitVector(a2),
		s3: unitVector(a2 + math.Acos(0.2)),
	}}

	c, err := NewSemanticChunker(emb, chunkerSettings())
	require.NoError(t, err)

	doc := &domain.Document{ID: "d1", Content: s1 + " " + s2 + " " + s3}
	first, err := c.ChunkDocument(context.Background(), doc)
	require.NoError(t, err)
	second, err := c.ChunkDocument(context.Background(), doc)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].StartUnit, second[i].StartUnit)
		assert.Equal(t, first[i].EndUnit, second[i].EndUnit)
		assert.Equal(t, first[i].Content, second[i].Content)
	}
}

func TestSegmentUnits(t *testing.T) {
	doc := &domain.Document{ID: "d1", Content: "Hello there. Second one!\nThird"}

	units := segmentUnits(doc)
	require.Len(t, units, 3)

	assert.Equal(t, "Hello there.", units[0].Text)
	assert.Equal(t, "Second one!", units[1].Text)
	assert.Equal(t, "Third", units[2].Text)

	for i, u := range units {
		assert.Equal(t, i, u.Index)
		assert.Equal(t, "d1", u.DocumentID)
		assert.Equal(t, u.Text, doc.Content[u.Start:u.End], "offsets must point at the unit text")
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestMeanVector(t *testing.T) {
	mean := meanVector([][]float32{{1, 0}, {0, 1}})
	require.Len(t, mean, 2)
	assert.InDelta(t, 0.5, float64(mean[0]), 1e-6)
	assert.InDelta(t, 0.5, float64(mean[1]), 1e-6)

	assert.Nil(t, meanVector(nil))
}
