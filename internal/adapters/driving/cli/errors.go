package cli

import (
	"errors"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/services"
)

// guidedError replaces an error's message with advice while keeping the
// original reachable through errors.Is.
type guidedError struct {
	err  error
	hint string
}

func (e *guidedError) Error() string { return e.hint }
func (e *guidedError) Unwrap() error { return e.err }

// explain turns errors the user can act on into guidance.
func explain(err error) error {
	if err == nil {
		return nil
	}
	if msg, ok := services.UsageMessage(err); ok {
		return &guidedError{err: err, hint: msg}
	}

	var hint string
	switch {
	case errors.Is(err, domain.ErrNotFound):
		hint = "the research document was not found. Run 'docbrain settings document PATH'"
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		hint = "the embedding service is unavailable. Check that it is running, or run 'docbrain settings embedding'"
	case errors.Is(err, domain.ErrGenerationUnavailable):
		hint = "the LLM is unavailable. Check that it is running, or run 'docbrain settings llm'"
	case errors.Is(err, domain.ErrVectorStoreUnavailable):
		hint = "the vector store is unavailable. Check vector_store settings or switch to the sqlite backend"
	case errors.Is(err, domain.ErrTimeout):
		hint = "the request timed out. Try again, or raise the timeout in settings"
	default:
		return err
	}
	return &guidedError{err: err, hint: hint + " (" + err.Error() + ")"}
}
