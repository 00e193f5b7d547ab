package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/logger"
	"github.com/docbrain/docbrain-cli/internal/sections"
)

// RouterService decides which section new content belongs to.
// It never writes; callers stage the classification in the gate.
type RouterService struct {
	index     *IndexService
	threshold float64
}

// NewRouterService creates a router. Suggestions scoring below threshold
// are flagged as low-confidence.
func NewRouterService(index *IndexService, threshold float64) *RouterService {
	return &RouterService{index: index, threshold: threshold}
}

// Classify proposes a target section for content.
//
// A trailing "in [MARKER]" names the target explicitly (confidence 1.0).
// A directed marker that is not indexed is an error. Otherwise the section
// whose chunks are most similar to the content wins.
func (r *RouterService) Classify(ctx context.Context, text string) (*domain.Classification, error) {
	logger.Section("Content Routing")

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: nothing to add", domain.ErrInvalidInput)
	}
	if r.index.IsEmpty() {
		return nil, domain.ErrEmptyIndex
	}

	if target, ok := sections.ExtractTrailingMarker(text); ok {
		if r.index.HasMarker(target.Marker) {
			logger.Debug("Explicit target [%s]", target.Marker)
			return &domain.Classification{
				Content:    target.Content,
				Marker:     target.Marker,
				Confidence: 1.0,
				Explicit:   true,
			}, nil
		}
		if target.Directed {
			return nil, fmt.Errorf("%w: %s", domain.ErrMarkerNotFound, sections.FormatMarker(target.Marker))
		}
		logger.Debug("Trailing [%s] is not a known marker, treating as content", target.Marker)
	}

	vec, err := r.index.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	results, err := r.index.Search(ctx, vec, 1)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	if len(results) == 0 {
		return nil, domain.ErrEmptyIndex
	}

	best := results[0]
	confidence := min(max(best.Score, 0), 1)
	low := confidence < r.threshold
	logger.Debug("Best match [%s] confidence %.3f (low=%t)", best.Marker, confidence, low)

	return &domain.Classification{
		Content:       text,
		Marker:        best.Marker,
		Confidence:    confidence,
		LowConfidence: low,
	}, nil
}
