package driven

import "github.com/docbrain/docbrain-cli/internal/core/domain"

// Chunker splits a section into embeddable chunks.
// Chunk IDs must be deterministic for identical input.
type Chunker interface {
	// Name returns the chunker identifier.
	Name() string

	// Process returns one or more chunks for the section. The model name
	// scopes chunk IDs to the embedding model.
	Process(section domain.Section, model string) []domain.Chunk
}
