package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/logger"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// statusFor maps a domain error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMarkerNotFound), errors.Is(err, domain.ErrNoPendingEdit):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflictingPendingEdit), errors.Is(err, domain.ErrEmptyIndex):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoMarkers):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrGenerationUnavailable),
		errors.Is(err, domain.ErrVectorStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is a stable machine-readable name for the failure.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrMarkerNotFound):
		return "marker_not_found"
	case errors.Is(err, domain.ErrNoPendingEdit):
		return "no_pending_edit"
	case errors.Is(err, domain.ErrConflictingPendingEdit):
		return "conflicting_pending_edit"
	case errors.Is(err, domain.ErrEmptyIndex):
		return "empty_index"
	case errors.Is(err, domain.ErrNoMarkers):
		return "no_markers"
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return "generation_unavailable"
	case errors.Is(err, domain.ErrVectorStoreUnavailable):
		return "vector_store_unavailable"
	case errors.Is(err, domain.ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, domain.ErrNotImplemented):
		return "not_implemented"
	default:
		return "internal"
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("Request failed (%d): %v", status, err)
	}
	respondJSON(w, status, errorResponse{
		Error:   errorCode(err),
		Message: err.Error(),
		Code:    status,
	})
}
