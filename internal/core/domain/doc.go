// Package domain defines the core business entities for Anker.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document / Page: An ingested document and its raw pages
//   - ParentChunk / ChildChunk: The two-level chunking units
//   - RetrievalCandidate: A transient scored retrieval hit
//   - MemoryRecord / MemorySnapshot: The tiered conversation memory
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
