// Package tui provides an interactive chat interface for docbrain.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/docbrain/docbrain-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Chat interprets each line the user sends.
	Chat driving.ChatService

	// Brain supplies index statistics for the status bar. Optional.
	Brain driving.BrainService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(chat driving.ChatService, brain driving.BrainService) *Ports {
	return &Ports{
		Chat:  chat,
		Brain: brain,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
