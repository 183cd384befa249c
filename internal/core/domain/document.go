package domain

import "time"

// Document represents a source document handed to the ingestion pipeline.
// Content is the full extracted text; extraction itself happens upstream.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document entered the pipeline.
	CreatedAt time.Time
}

// TextUnit is an ordered, contiguous span of source text.
// Units are produced by a trivial sentence-scale segmentation of the
// document and are immutable once created.
type TextUnit struct {
	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Start is the byte offset of the span within the document content.
	Start int

	// End is the byte offset one past the span.
	End int

	// Text is the raw span text.
	Text string
}

// BoundaryScore is the cosine similarity between two adjacent TextUnits'
// embedding vectors, indexed by the gap position between them.
// Gap i sits between unit i and unit i+1.
type BoundaryScore struct {
	// Gap is the gap index.
	Gap int

	// Similarity is the cosine similarity across the gap.
	// Low similarity signals a semantic boundary.
	Similarity float64
}

// Chunk is a maximal run of TextUnits between two accepted boundaries.
// Chunks reference the units they were built from by index range but do
// not own them.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the concatenated text of the member units.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// StartUnit is the index of the first member TextUnit.
	StartUnit int

	// EndUnit is the index one past the last member TextUnit.
	EndUnit int

	// Embedding is the mean of the member unit vectors.
	Embedding []float32

	// CharCount is the length of Content in runes.
	CharCount int

	// TokenCount is the estimated token count of Content.
	TokenCount int
}

// UnitCount returns the number of TextUnits the chunk spans.
func (c Chunk) UnitCount() int {
	return c.EndUnit - c.StartUnit
}
