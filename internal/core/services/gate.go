package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
	"github.com/docbrain/docbrain-cli/internal/sections"
)

// GateService holds routed content until the user confirms it.
//
// Each session is a small state machine, IDLE -> AWAITING_CONFIRMATION ->
// IDLE, persisted through the PendingEditStore. Transitions are serialised;
// Pending and State only read.
type GateService struct {
	store driven.PendingEditStore
	index *IndexService
	docs  driven.DocumentSource
	ttl   time.Duration
	now   func() time.Time

	mu sync.Mutex

	// committed maps a session to the CreatedAt of an edit that reached the
	// document but could not be removed from the store. Such an edit is
	// treated as absent until the store delete succeeds.
	committed sync.Map
}

// NewGateService creates a confirmation gate.
func NewGateService(
	store driven.PendingEditStore,
	index *IndexService,
	docs driven.DocumentSource,
	ttl time.Duration,
) *GateService {
	if ttl <= 0 {
		ttl = domain.DefaultPendingTTL
	}
	return &GateService{
		store: store,
		index: index,
		docs:  docs,
		ttl:   ttl,
		now:   time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (g *GateService) SetClock(now func() time.Time) {
	g.now = now
}

// Stage stores a classification as the session's pending edit.
func (g *GateService) Stage(
	ctx context.Context, sessionID string, c *domain.Classification,
) (*domain.PendingEdit, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: missing session", domain.ErrInvalidInput)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: missing classification", domain.ErrInvalidInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	existing, _, err := g.live(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: [%s] for session %s",
			domain.ErrConflictingPendingEdit, existing.TargetMarker, sessionID)
	}

	now := g.now()
	edit := &domain.PendingEdit{
		SessionID:     sessionID,
		Content:       c.Content,
		TargetMarker:  c.Marker,
		Confidence:    c.Confidence,
		LowConfidence: c.LowConfidence,
		Explicit:      c.Explicit,
		CreatedAt:     now,
		ExpiresAt:     now.Add(g.ttl),
	}
	if err := g.store.Save(ctx, edit); err != nil {
		return nil, fmt.Errorf("save pending edit: %w", err)
	}

	logger.Info("Staged edit for [%s] in session %s (confidence %.2f)", edit.TargetMarker, sessionID, edit.Confidence)
	return edit, nil
}

// Confirm commits the session's pending edit to the document and the index.
//
// A non-empty marker retargets the edit. The index update is prepared
// first, the document is appended second and the index is published last;
// any failure leaves both untouched and the edit pending.
func (g *GateService) Confirm(ctx context.Context, sessionID, marker string) (*domain.CommitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	edit, expired, err := g.live(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if edit == nil {
		if expired {
			return nil, fmt.Errorf("%w: pending edit expired", domain.ErrNoPendingEdit)
		}
		return nil, domain.ErrNoPendingEdit
	}

	target := edit.TargetMarker
	if marker != "" {
		target = sections.NormalizeMarker(marker)
	}
	section, ok := g.index.Section(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMarkerNotFound, sections.FormatMarker(target))
	}

	updated := section
	if section.IsEmpty() {
		updated.Body = edit.Content
	} else {
		updated.Body = section.Body + "\n\n" + edit.Content
	}

	prepared, err := g.index.PrepareUpsert(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("confirm: %w", err)
	}

	if err := g.docs.Append(ctx, target, edit.Content); err != nil {
		g.index.Discard(ctx, prepared)
		return nil, fmt.Errorf("confirm: append to document: %w", err)
	}

	if err := g.index.Commit(ctx, prepared); err != nil {
		// The document is already updated; the next reindex repairs the index.
		logger.Warn("Document updated but index publish failed for [%s]: %v", target, err)
	}

	logger.Info("Committed edit to [%s] for session %s", target, sessionID)
	if err := g.clear(ctx, edit); err != nil {
		return nil, fmt.Errorf("confirm: edit committed to %s but not cleared, do not confirm again: %w",
			sections.FormatMarker(target), err)
	}

	return &domain.CommitResult{
		Marker:  target,
		Content: edit.Content,
		Chunks:  prepared.Chunks(),
	}, nil
}

// clear removes a committed edit from the store, retrying once. When both
// attempts fail the edit is remembered as committed so it cannot be
// confirmed a second time.
func (g *GateService) clear(ctx context.Context, edit *domain.PendingEdit) error {
	err := g.store.Delete(ctx, edit.SessionID)
	if err == nil {
		return nil
	}
	logger.Warn("Failed to clear pending edit for session %s, retrying: %v", edit.SessionID, err)
	if err = g.store.Delete(ctx, edit.SessionID); err == nil {
		return nil
	}
	g.committed.Store(edit.SessionID, edit.CreatedAt)
	return err
}

// isCommitted reports whether edit already reached the document.
func (g *GateService) isCommitted(edit *domain.PendingEdit) bool {
	v, ok := g.committed.Load(edit.SessionID)
	return ok && v.(time.Time).Equal(edit.CreatedAt)
}

// Reject discards the session's pending edit without touching the document.
func (g *GateService) Reject(ctx context.Context, sessionID string) (*domain.PendingEdit, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	edit, expired, err := g.live(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if edit == nil {
		if expired {
			return nil, fmt.Errorf("%w: pending edit expired", domain.ErrNoPendingEdit)
		}
		return nil, domain.ErrNoPendingEdit
	}

	if err := g.store.Delete(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("delete pending edit: %w", err)
	}

	logger.Info("Rejected edit for [%s] in session %s", edit.TargetMarker, sessionID)
	return edit, nil
}

// Pending returns the session's live pending edit.
func (g *GateService) Pending(ctx context.Context, sessionID string) (*domain.PendingEdit, error) {
	edit, err := g.store.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoPendingEdit
	}
	if err != nil {
		return nil, fmt.Errorf("get pending edit: %w", err)
	}
	if edit.IsExpired(g.now()) {
		return nil, fmt.Errorf("%w: pending edit expired", domain.ErrNoPendingEdit)
	}
	if g.isCommitted(edit) {
		return nil, domain.ErrNoPendingEdit
	}
	return edit, nil
}

// State reports the session's gate state.
func (g *GateService) State(ctx context.Context, sessionID string) domain.GateState {
	if _, err := g.Pending(ctx, sessionID); err != nil {
		return domain.GateIdle
	}
	return domain.GateAwaitingConfirmation
}

// Sweep deletes every expired pending edit.
func (g *GateService) Sweep(ctx context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, err := g.store.DeleteExpired(ctx, g.now())
	if err != nil {
		return 0, fmt.Errorf("sweep pending edits: %w", err)
	}
	if n > 0 {
		logger.Debug("Expired %d pending edits", n)
	}
	return n, nil
}

// RunJanitor sweeps expired edits every interval until ctx is cancelled.
// onSweep, if set, receives the number of edits each sweep expired.
func (g *GateService) RunJanitor(ctx context.Context, interval time.Duration, onSweep func(expired int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := g.Sweep(ctx)
			if err != nil {
				logger.Warn("Pending edit sweep failed: %v", err)
				continue
			}
			if onSweep != nil && n > 0 {
				onSweep(n)
			}
		}
	}
}

// live returns the session's unexpired edit. An expired edit is deleted
// and reported through the expired flag. Callers must hold g.mu.
func (g *GateService) live(ctx context.Context, sessionID string) (*domain.PendingEdit, bool, error) {
	edit, err := g.store.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		g.committed.Delete(sessionID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get pending edit: %w", err)
	}
	if g.isCommitted(edit) {
		if err := g.store.Delete(ctx, sessionID); err == nil {
			g.committed.Delete(sessionID)
		}
		return nil, false, nil
	}
	g.committed.Delete(sessionID)
	if edit.IsExpired(g.now()) {
		if err := g.store.Delete(ctx, sessionID); err != nil {
			logger.Warn("Failed to delete expired edit for session %s: %v", sessionID, err)
		}
		return nil, true, nil
	}
	return edit, false, nil
}
