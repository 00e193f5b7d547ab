package driving

import (
	"context"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// ChatService interprets free-form input from conversational front ends.
type ChatService interface {
	// Handle classifies the input for the session and executes it.
	Handle(ctx context.Context, sessionID, input string) (*domain.Reply, error)
}
