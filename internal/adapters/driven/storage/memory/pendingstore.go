package memory

import (
	"context"
	"sync"
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
)

// Ensure PendingEditStore implements the interface.
var _ driven.PendingEditStore = (*PendingEditStore)(nil)

// PendingEditStore is an in-memory implementation of driven.PendingEditStore.
// Pending edits do not survive a restart.
type PendingEditStore struct {
	mu    sync.RWMutex
	edits map[string]domain.PendingEdit
}

// NewPendingEditStore creates a new in-memory pending edit store.
func NewPendingEditStore() *PendingEditStore {
	return &PendingEditStore{
		edits: make(map[string]domain.PendingEdit),
	}
}

// Get retrieves the pending edit for a session.
func (s *PendingEditStore) Get(_ context.Context, sessionID string) (*domain.PendingEdit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edit, ok := s.edits[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &edit, nil
}

// Save stores or replaces the pending edit for its session.
func (s *PendingEditStore) Save(_ context.Context, edit *domain.PendingEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits[edit.SessionID] = *edit
	return nil
}

// Delete removes the pending edit for a session.
func (s *PendingEditStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edits, sessionID)
	return nil
}

// DeleteExpired removes every edit that expired at or before now.
func (s *PendingEditStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, edit := range s.edits {
		if edit.IsExpired(now) {
			delete(s.edits, id)
			n++
		}
	}
	return n, nil
}
