package driven

import (
	"context"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// VectorStore persists chunk vectors and performs similarity search.
// Records are keyed by content-addressed chunk ID, so storing an
// identical chunk twice is idempotent and stored vectors can be reused
// across rebuilds.
//
// Implementations:
//   - memory: brute-force cosine over a map
//   - sqlite: vectors as little-endian float32 blobs
//   - qdrant: gRPC collection with cosine distance
type VectorStore interface {
	// Upsert inserts or replaces records.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// Get returns the stored records for the given IDs. Missing IDs are
	// omitted from the result rather than reported as errors.
	Get(ctx context.Context, ids []string) (map[string]domain.VectorRecord, error)

	// Delete removes records. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Search returns up to k records most similar to the query vector,
	// ordered by descending cosine similarity.
	Search(ctx context.Context, query []float32, k int) ([]domain.VectorHit, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
