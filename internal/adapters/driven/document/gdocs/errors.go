package gdocs

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// Google Docs API errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("gdocs: unauthorised (invalid credentials)")

	// ErrForbidden indicates the account cannot read or edit the document.
	ErrForbidden = errors.New("gdocs: forbidden (insufficient permissions)")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("gdocs: rate limit exceeded")

	// ErrRevisionChanged indicates the document was edited between read and write.
	ErrRevisionChanged = errors.New("gdocs: document changed during the edit")
)

// wrapError converts a Google API error into a sentinel error. Missing
// documents map to domain.ErrNotFound.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, gerr.Message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, gerr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, gerr.Message)
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		// A stale RequiredRevisionId is reported as a 400.
		return fmt.Errorf("%w: %s", ErrRevisionChanged, gerr.Message)
	default:
		return err
	}
}

// retryAfter extracts the Retry-After header from a 429 response, in seconds.
func retryAfter(err error) (int, bool) {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusTooManyRequests {
		return 0, false
	}
	secs, _ := strconv.Atoi(gerr.Header.Get("Retry-After"))
	return secs, true
}
