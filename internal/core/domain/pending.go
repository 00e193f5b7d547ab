package domain

import "time"

// GateState is the confirmation state of a session.
type GateState string

// Available gate states.
const (
	// GateIdle means no edit is staged.
	GateIdle GateState = "IDLE"

	// GateAwaitingConfirmation means an edit is staged and waits for the user.
	GateAwaitingConfirmation GateState = "AWAITING_CONFIRMATION"
)

// PendingEdit is a routed append waiting for explicit user confirmation.
// At most one exists per session.
type PendingEdit struct {
	// SessionID owns the edit.
	SessionID string

	// Content is the text to append.
	Content string

	// TargetMarker is the section the content will be appended to.
	TargetMarker string

	// Confidence is the router's confidence in TargetMarker (0..1).
	Confidence float64

	// LowConfidence flags a suggestion below the confidence threshold.
	LowConfidence bool

	// Explicit is true when the user named the target marker inline.
	Explicit bool

	// CreatedAt is when the edit was staged.
	CreatedAt time.Time

	// ExpiresAt is when the edit is discarded if still unconfirmed.
	ExpiresAt time.Time
}

// IsExpired reports whether the edit has expired at the given time.
func (p *PendingEdit) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

// Classification is the content router's proposed target for new content.
type Classification struct {
	// Content is the text to append, with any inline marker removed.
	Content string

	// Marker is the proposed target section.
	Marker string

	// Confidence is 1.0 for explicit markers, otherwise the similarity score.
	Confidence float64

	// LowConfidence flags a suggestion below the confidence threshold.
	LowConfidence bool

	// Explicit is true when the marker came from the user's text.
	Explicit bool
}

// CommitResult describes a confirmed append.
type CommitResult struct {
	// Marker is the section that received the content.
	Marker string

	// Content is the appended text.
	Content string

	// Chunks is the number of chunks re-indexed for the section.
	Chunks int
}
