// Package mcp provides an MCP (Model Context Protocol) server adapter for docbrain.
// It lets AI assistants query the research document and stage additions to it.
package mcp

import "errors"

// ErrMissingBrainService is returned when the brain service is not provided.
var ErrMissingBrainService = errors.New("mcp: brain service is required")
