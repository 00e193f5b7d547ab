package mcp

import (
	"github.com/docbrain/docbrain-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Brain answers questions and manages the research document.
	Brain driving.BrainService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Brain == nil {
		return ErrMissingBrainService
	}
	return nil
}
