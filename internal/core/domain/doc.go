// Package domain defines the core business entities for docbrain.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Section: A marker-delimited region of the research document
//   - Chunk: An embedded unit of a section held by the index
//   - RetrievalResult: A scored chunk returned by similarity search
//   - PendingEdit: A staged append awaiting user confirmation
//   - GapReport: Coverage status of every section
//   - Command: A classified user input
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
