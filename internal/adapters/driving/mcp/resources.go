package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for docbrain resources.
	uriScheme = "docbrain://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing markers.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "markers",
		Name:        "markers",
		Description: "Section markers of the research document, grouped by domain",
		MIMEType:    "application/json",
	}, s.handleMarkersResource)

	// Template for section content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sections/{marker}",
		Name:        "section-content",
		Description: "Current text of one section",
		MIMEType:    "text/plain",
	}, s.handleSectionResource)
}

// handleMarkersResource returns the markers grouped by domain.
func (s *Server) handleMarkersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	secs, err := s.ports.Brain.ListMarkers(ctx)
	if errors.Is(err, domain.ErrEmptyIndex) {
		return textResult(req.Params.URI, "application/json", "{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing markers: %w", err)
	}

	grouped := make(map[string][]string)
	for _, sec := range secs {
		d := sec.DomainOrDefault()
		grouped[d] = append(grouped[d], sec.Marker)
	}

	data, err := json.MarshalIndent(grouped, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling markers: %w", err)
	}

	return textResult(req.Params.URI, "application/json", string(data)), nil
}

// handleSectionResource returns the body of a single section.
func (s *Server) handleSectionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	marker := extractMarker(req.Params.URI)
	if marker == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	secs, err := s.ports.Brain.ListMarkers(ctx)
	if errors.Is(err, domain.ErrEmptyIndex) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("listing markers: %w", err)
	}

	for _, sec := range secs {
		if strings.EqualFold(sec.Marker, marker) {
			return textResult(req.Params.URI, "text/plain", sec.Body), nil
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

// extractMarker extracts the marker from a URI like docbrain://sections/{marker}.
// Brackets around the marker are accepted.
func extractMarker(uri string) string {
	const prefix = uriScheme + "sections/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	marker := strings.TrimPrefix(uri, prefix)
	if unescaped, err := url.PathUnescape(marker); err == nil {
		marker = unescaped
	}
	marker = strings.TrimSuffix(strings.TrimPrefix(marker, "["), "]")
	return strings.TrimSpace(marker)
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		}},
	}
}
