package domain

import "math"

// Chunk is an embedded unit of text held by the index.
// Short sections produce exactly one chunk; long ones are split into
// overlapping sub-chunks that all carry the section marker.
type Chunk struct {
	// ID is content-addressed: identical marker, sequence and text under
	// the same embedding model always produce the same ID.
	ID string

	// Marker is the section this chunk belongs to.
	Marker string

	// Position is the order index of the owning section.
	Position int

	// Seq is the chunk's index within its section.
	Seq int

	// Text is the content that was embedded.
	Text string

	// Embedding is the vector produced for Text.
	Embedding []float32
}

// RetrievalResult is a chunk matched by similarity search.
type RetrievalResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Marker identifies the owning section.
	Marker string

	// Position is the order index of the owning section, used as tie-break.
	Position int

	// Seq is the chunk index within the section.
	Seq int

	// Score is the cosine similarity between query and chunk (higher is closer).
	Score float64

	// Text is the chunk text.
	Text string
}

// VectorRecord is a persisted chunk vector in the storage engine.
type VectorRecord struct {
	// ID is the chunk ID.
	ID string

	// Marker is the owning section marker.
	Marker string

	// Position is the owning section order index.
	Position int

	// Seq is the chunk index within the section.
	Seq int

	// Text is the embedded text.
	Text string

	// Vector is the embedding.
	Vector []float32
}

// VectorHit is a raw match returned by a vector storage engine.
type VectorHit struct {
	// ID is the matched record.
	ID string

	// Score is the cosine similarity.
	Score float64
}

// IndexStats summarises the current index snapshot.
type IndexStats struct {
	// Sections is the number of sections in the snapshot.
	Sections int

	// EmptySections is the number of sections without content.
	EmptySections int

	// Chunks is the number of embedded chunks.
	Chunks int

	// Model is the embedding model that produced the vectors.
	Model string

	// Generation increments on every published snapshot.
	Generation uint64
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
