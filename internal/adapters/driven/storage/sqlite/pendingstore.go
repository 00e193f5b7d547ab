package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
)

// pendingEditStore implements driven.PendingEditStore.
// Edits survive a restart until they expire.
type pendingEditStore struct {
	store *Store
}

var _ driven.PendingEditStore = (*pendingEditStore)(nil)

// Get retrieves the pending edit for a session.
func (s *pendingEditStore) Get(ctx context.Context, sessionID string) (*domain.PendingEdit, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT session_id, content, target_marker, confidence, low_confidence, explicit, created_at, expires_at
		FROM pending_edits WHERE session_id = ?
	`, sessionID)

	var edit domain.PendingEdit
	var lowConfidence, explicit int
	var createdAt, expiresAt int64
	err := row.Scan(&edit.SessionID, &edit.Content, &edit.TargetMarker, &edit.Confidence,
		&lowConfidence, &explicit, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning pending edit: %w", err)
	}

	edit.LowConfidence = lowConfidence != 0
	edit.Explicit = explicit != 0
	edit.CreatedAt = fromUnixNano(createdAt)
	edit.ExpiresAt = fromUnixNano(expiresAt)
	return &edit, nil
}

// Save stores or replaces the pending edit for its session.
func (s *pendingEditStore) Save(ctx context.Context, edit *domain.PendingEdit) error {
	if edit == nil || edit.SessionID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO pending_edits (session_id, content, target_marker, confidence, low_confidence, explicit, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			content = excluded.content,
			target_marker = excluded.target_marker,
			confidence = excluded.confidence,
			low_confidence = excluded.low_confidence,
			explicit = excluded.explicit,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, edit.SessionID, edit.Content, edit.TargetMarker, edit.Confidence,
		boolToInt(edit.LowConfidence), boolToInt(edit.Explicit),
		toUnixNano(edit.CreatedAt), toUnixNano(edit.ExpiresAt))
	if err != nil {
		return fmt.Errorf("saving pending edit: %w", err)
	}
	return nil
}

// Delete removes the pending edit for a session.
func (s *pendingEditStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM pending_edits WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("deleting pending edit: %w", err)
	}
	return nil
}

// DeleteExpired removes every edit that expired at or before now.
func (s *pendingEditStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM pending_edits WHERE expires_at > 0 AND expires_at <= ?", now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("deleting expired edits: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired edits: %w", err)
	}
	return int(n), nil
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
