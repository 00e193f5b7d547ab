package driving

import (
	"context"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// BrainService is the single entry point for document operations.
// Every gate operation is scoped to a session ID.
type BrainService interface {
	// Query answers a question from retrieved sections only.
	Query(ctx context.Context, question string, opts domain.QueryOptions) (*domain.Answer, error)

	// Add routes content to a section and stages it for confirmation.
	// The document is not modified.
	Add(ctx context.Context, sessionID, content string) (*domain.PendingEdit, error)

	// Confirm commits the session's pending edit. A non-empty marker
	// retargets the edit before committing.
	Confirm(ctx context.Context, sessionID, marker string) (*domain.CommitResult, error)

	// Reject discards the session's pending edit.
	Reject(ctx context.Context, sessionID string) (*domain.PendingEdit, error)

	// Pending returns the session's pending edit or domain.ErrNoPendingEdit.
	Pending(ctx context.Context, sessionID string) (*domain.PendingEdit, error)

	// Reindex fetches, parses and re-embeds the whole document.
	Reindex(ctx context.Context) (*domain.ReindexResult, error)

	// AnalyzeGaps reports EMPTY and INCOMPLETE sections, optionally for one domain.
	AnalyzeGaps(ctx context.Context, scope string) (*domain.GapReport, error)

	// AdviseGaps asks the LLM for a prioritised narrative of the gaps.
	AdviseGaps(ctx context.Context, scope string) (string, error)

	// ListMarkers returns the indexed sections in document order.
	ListMarkers(ctx context.Context) ([]domain.Section, error)

	// Stats summarises the current index.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}
