package domain

// Answer is a retrieval-grounded response to a question.
type Answer struct {
	// Question is the user's question.
	Question string

	// Text is the generated answer.
	Text string

	// Citations lists the markers of the sections supplied as context,
	// best match first. They are retrieval-based, not verified against Text.
	Citations []string

	// Results are the retrieval results that survived the score floor.
	Results []RetrievalResult

	// Grounded is false when no retrieved section passed the score floor.
	Grounded bool
}

// ReindexResult describes a full rebuild of the index.
type ReindexResult struct {
	// SectionsFound is the number of sections parsed from the document.
	SectionsFound int

	// SectionsIndexed is the number of sections published in the index.
	SectionsIndexed int

	// ChunksIndexed is the total number of chunks in the new snapshot.
	ChunksIndexed int

	// ChunksReused is the number of chunks whose vectors came from storage.
	ChunksReused int

	// Warnings holds non-fatal parse issues.
	Warnings []ParseWarning
}

// QueryOptions tunes a single query.
type QueryOptions struct {
	// TopK overrides the configured number of chunks to retrieve.
	TopK int

	// Domain limits retrieval to sections of one domain.
	Domain string
}
