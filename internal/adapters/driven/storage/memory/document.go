package memory

import (
	"context"
	"sync"

	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/sections"
)

// Ensure DocumentSource implements the interface.
var _ driven.DocumentSource = (*DocumentSource)(nil)

// DocumentSource holds the research document in memory.
type DocumentSource struct {
	mu      sync.RWMutex
	text    string
	appends int

	// FetchErr and AppendErr, when set, are returned by the matching call.
	FetchErr  error
	AppendErr error
}

// NewDocumentSource creates an in-memory document with the given text.
func NewDocumentSource(text string) *DocumentSource {
	return &DocumentSource{text: text}
}

// Fetch returns the current document text.
func (s *DocumentSource) Fetch(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FetchErr != nil {
		return "", s.FetchErr
	}
	return s.text, nil
}

// Append inserts text at the end of the marker's section.
func (s *DocumentSource) Append(_ context.Context, marker, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	updated, err := sections.Append(s.text, marker, text)
	if err != nil {
		return err
	}
	s.text = updated
	s.appends++
	return nil
}

// Name describes the document.
func (s *DocumentSource) Name() string {
	return ":memory:"
}

// Text returns the current document text.
func (s *DocumentSource) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// SetText replaces the document text, as an external edit would.
func (s *DocumentSource) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

// Appends returns the number of successful appends.
func (s *DocumentSource) Appends() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appends
}
