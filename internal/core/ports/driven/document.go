package driven

import "context"

// DocumentSource reads and edits the research document.
// The document is the single source of truth; the index is derived from it.
type DocumentSource interface {
	// Fetch returns the full document text.
	Fetch(ctx context.Context) (string, error)

	// Append inserts text at the end of the section with the given marker,
	// before the next marker, separated from existing content by a blank line.
	// Returns domain.ErrMarkerNotFound when the marker is absent.
	Append(ctx context.Context, marker, text string) error

	// Name describes the document for display (file path, document title).
	Name() string
}

// DocumentWatcher is implemented by sources that can report external edits.
type DocumentWatcher interface {
	// Watch calls onChange after the document changes on its backend.
	// It blocks until ctx is cancelled.
	Watch(ctx context.Context, onChange func()) error
}
