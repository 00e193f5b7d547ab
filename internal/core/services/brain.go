package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driving"
	"github.com/docbrain/docbrain-cli/internal/logger"
	"github.com/docbrain/docbrain-cli/internal/sections"
)

// Verify interface compliance.
var _ driving.BrainService = (*BrainService)(nil)

// watchDebounce coalesces bursts of document change events into one reindex.
const watchDebounce = 500 * time.Millisecond

// BrainService composes parsing, indexing, answering, routing, the
// confirmation gate and gap analysis into the user-facing operations.
type BrainService struct {
	docs    driven.DocumentSource
	index   *IndexService
	answers *AnswerService
	router  *RouterService
	gate    *GateService
	gaps    *GapService

	// reindexMu keeps two reindexes from fetching and building out of order.
	reindexMu sync.Mutex
}

// NewBrainService creates the orchestrator.
func NewBrainService(
	docs driven.DocumentSource,
	index *IndexService,
	answers *AnswerService,
	router *RouterService,
	gate *GateService,
	gaps *GapService,
) *BrainService {
	return &BrainService{
		docs:    docs,
		index:   index,
		answers: answers,
		router:  router,
		gate:    gate,
		gaps:    gaps,
	}
}

// Query answers a question from the indexed sections.
func (b *BrainService) Query(ctx context.Context, question string, opts domain.QueryOptions) (*domain.Answer, error) {
	opts.Domain = strings.ToUpper(strings.TrimSpace(opts.Domain))
	return b.answers.Answer(ctx, question, opts)
}

// Add routes content to a section and stages it for confirmation.
// Nothing is written until Confirm.
func (b *BrainService) Add(ctx context.Context, sessionID, content string) (*domain.PendingEdit, error) {
	if existing, err := b.gate.Pending(ctx, sessionID); err == nil {
		return nil, fmt.Errorf("%w: [%s] awaits confirmation",
			domain.ErrConflictingPendingEdit, existing.TargetMarker)
	}

	classification, err := b.router.Classify(ctx, content)
	if err != nil {
		return nil, err
	}
	return b.gate.Stage(ctx, sessionID, classification)
}

// Confirm commits the session's pending edit, optionally to another marker.
func (b *BrainService) Confirm(ctx context.Context, sessionID, marker string) (*domain.CommitResult, error) {
	return b.gate.Confirm(ctx, sessionID, marker)
}

// Reject discards the session's pending edit.
func (b *BrainService) Reject(ctx context.Context, sessionID string) (*domain.PendingEdit, error) {
	return b.gate.Reject(ctx, sessionID)
}

// Pending returns the session's pending edit.
func (b *BrainService) Pending(ctx context.Context, sessionID string) (*domain.PendingEdit, error) {
	return b.gate.Pending(ctx, sessionID)
}

// Reindex fetches the document, parses it and rebuilds the index.
// A fetch, parse or build failure leaves the previous index in place.
func (b *BrainService) Reindex(ctx context.Context) (*domain.ReindexResult, error) {
	b.reindexMu.Lock()
	defer b.reindexMu.Unlock()

	logger.Section("Reindex")
	logger.Debug("Document: %s", b.docs.Name())

	raw, err := b.docs.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	parsed, err := sections.Parse(raw)
	if err != nil {
		return nil, err
	}
	for _, w := range parsed.Warnings {
		logger.Warn("%s", w.String())
	}

	stats, err := b.index.Build(ctx, parsed.Sections)
	if err != nil {
		return nil, err
	}

	return &domain.ReindexResult{
		SectionsFound:   len(parsed.Sections) + len(parsed.Warnings),
		SectionsIndexed: stats.Sections,
		ChunksIndexed:   stats.Chunks,
		ChunksReused:    stats.Reused,
		Warnings:        parsed.Warnings,
	}, nil
}

// AnalyzeGaps reports empty and incomplete sections, optionally for one domain.
func (b *BrainService) AnalyzeGaps(_ context.Context, scope string) (*domain.GapReport, error) {
	if b.index.Stats().Generation == 0 {
		return nil, domain.ErrEmptyIndex
	}
	return b.gaps.Analyze(b.index.Sections(), scope), nil
}

// AdviseGaps returns an LLM narrative prioritising the gaps in scope.
func (b *BrainService) AdviseGaps(ctx context.Context, scope string) (string, error) {
	report, err := b.AnalyzeGaps(ctx, scope)
	if err != nil {
		return "", err
	}
	return b.gaps.Advise(ctx, report)
}

// ListMarkers returns the indexed sections in document order.
func (b *BrainService) ListMarkers(_ context.Context) ([]domain.Section, error) {
	if b.index.Stats().Generation == 0 {
		return nil, domain.ErrEmptyIndex
	}
	return b.index.Sections(), nil
}

// Stats summarises the current index.
func (b *BrainService) Stats(_ context.Context) (*domain.IndexStats, error) {
	stats := b.index.Stats()
	return &stats, nil
}

// Watch reindexes whenever the document source reports an external change.
// It blocks until ctx is cancelled. Sources that cannot watch return
// domain.ErrNotImplemented.
func (b *BrainService) Watch(ctx context.Context) error {
	watcher, ok := b.docs.(driven.DocumentWatcher)
	if !ok {
		return fmt.Errorf("watch %s: %w", b.docs.Name(), domain.ErrNotImplemented)
	}

	changes := make(chan struct{}, 1)
	go b.reindexOnChange(ctx, changes)

	err := watcher.Watch(ctx, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch %s: %w", b.docs.Name(), err)
	}
	return nil
}

func (b *BrainService) reindexOnChange(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
		}

		// Debounce bursts of writes.
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchDebounce):
		}

		result, err := b.Reindex(ctx)
		if err != nil {
			logger.Warn("Reindex after document change failed: %v", err)
			continue
		}
		logger.Info("Reindexed after document change: %d sections, %d chunks",
			result.SectionsIndexed, result.ChunksIndexed)
	}
}
