package driven

import "context"

// EmbeddingService turns section chunks and questions into vectors. Chunks
// and queries must go through the same model, or scores are meaningless.
// Chunk IDs include ModelName, so switching models re-embeds every chunk.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, or 0 when the model is unknown
	// until the first call.
	Dimensions() int

	ModelName() string

	// Ping checks reachability and credentials without embedding anything
	// where the provider allows it.
	Ping(ctx context.Context) error

	Close() error
}
