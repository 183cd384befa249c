// Package domain defines the core business entities for ragctx.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source document handed to the ingestion pipeline
//   - TextUnit: The smallest segmentable span considered for boundary detection
//   - Chunk: A contiguous run of TextUnits treated as one retrievable unit
//   - SearchResult: An externally ranked candidate for context assembly
//   - FittedContext: The packed context window handed downstream
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
