package driven

import (
	"context"
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// PendingEditStore persists staged edits, one per session.
type PendingEditStore interface {
	// Get returns the session's pending edit or domain.ErrNotFound.
	Get(ctx context.Context, sessionID string) (*domain.PendingEdit, error)

	// Save stores the edit, replacing any existing edit for the session.
	Save(ctx context.Context, edit *domain.PendingEdit) error

	// Delete removes the session's edit. Deleting a missing edit is not an error.
	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired removes edits that expired at or before now and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
