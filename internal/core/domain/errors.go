package domain

import (
	"context"
	"errors"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Document Errors.

	// ErrNoMarkers indicates the document contains no section markers.
	// This is the parse error: nothing can be indexed.
	ErrNoMarkers = errors.New("document contains no section markers")

	// ErrMarkerNotFound indicates a marker does not name a known section.
	ErrMarkerNotFound = errors.New("marker not found")

	// ErrEmptyIndex indicates an operation needs an index that has not been built.
	ErrEmptyIndex = errors.New("index is empty")

	// Collaborator Errors.

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the LLM service is not configured
	// or could not be reached.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrGenerationFailed indicates answer generation did not produce text.
	// It is wrapped together with the cause (ErrTimeout, ErrGenerationUnavailable).
	ErrGenerationFailed = errors.New("generation failed")

	// ErrTimeout indicates a collaborator call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrVectorStoreUnavailable indicates the vector storage engine failed.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// Confirmation Errors.

	// ErrConflictingPendingEdit indicates the session already has a staged edit.
	ErrConflictingPendingEdit = errors.New("a pending edit already awaits confirmation")

	// ErrNoPendingEdit indicates confirm or reject was called with nothing staged.
	ErrNoPendingEdit = errors.New("no pending edit")
)

// IsTransient reports whether err is a collaborator failure worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrGenerationUnavailable) ||
		errors.Is(err, ErrVectorStoreUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}
