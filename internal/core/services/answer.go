package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
)

// AnswerConfig tunes retrieval and generation.
type AnswerConfig struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// MinScore drops results below this similarity.
	MinScore float64

	// GenerationTimeout bounds a single LLM call.
	GenerationTimeout time.Duration
}

// AnswerService answers questions from retrieved sections only.
type AnswerService struct {
	index   *IndexService
	llm     driven.LLMService
	prompts *PromptBuilder
	cfg     AnswerConfig
}

// NewAnswerService creates a new answer service.
// The llm parameter is optional; without it only Retrieve works.
func NewAnswerService(index *IndexService, llm driven.LLMService, prompts *PromptBuilder, cfg AnswerConfig) *AnswerService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = domain.DefaultGenerationTimeout
	}
	if prompts == nil {
		prompts = NewPromptBuilder(nil)
	}
	return &AnswerService{index: index, llm: llm, prompts: prompts, cfg: cfg}
}

// Retrieve returns the results for a question that pass the score floor,
// skipping sections without content.
func (s *AnswerService) Retrieve(
	ctx context.Context, question string, opts domain.QueryOptions,
) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if s.index.IsEmpty() {
		return nil, domain.ErrEmptyIndex
	}

	vec, err := s.index.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	k := opts.TopK
	if k <= 0 {
		k = s.cfg.TopK
	}

	results, err := s.index.SearchFiltered(ctx, vec, k, SearchFilter{Domain: opts.Domain, SkipEmpty: true})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("Retrieved %d chunks (k=%d, domain=%q)", len(results), k, opts.Domain)

	kept := results[:0]
	for _, r := range results {
		if r.Score < s.cfg.MinScore {
			logger.Debug("  drop [%s] score %.3f below floor %.2f", r.Marker, r.Score, s.cfg.MinScore)
			continue
		}
		logger.Debug("  keep [%s] score %.3f", r.Marker, r.Score)
		kept = append(kept, r)
	}
	return kept, nil
}

// Answer retrieves context for the question and generates a grounded answer.
func (s *AnswerService) Answer(ctx context.Context, question string, opts domain.QueryOptions) (*domain.Answer, error) {
	results, err := s.Retrieve(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	contexts := s.aggregate(results)
	citations := make([]string, len(contexts))
	for i, c := range contexts {
		citations[i] = c.Marker
	}

	if s.llm == nil {
		return nil, fmt.Errorf("answer: %w", domain.ErrGenerationUnavailable)
	}

	messages := s.prompts.AnswerMessages(strings.TrimSpace(question), contexts)
	logger.Section("Generation")
	logger.Debug("Context sections: %v", citations)

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	text, err := s.llm.Chat(genCtx, messages, driven.ChatOptions{Temperature: 0.2})
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return nil, fmt.Errorf("answer: %w", generationError(ctx, err))
	}

	return &domain.Answer{
		Question:  strings.TrimSpace(question),
		Text:      strings.TrimSpace(text),
		Citations: citations,
		Results:   results,
		Grounded:  len(contexts) > 0,
	}, nil
}

// aggregate collapses results to unique sections, best score first.
func (s *AnswerService) aggregate(results []domain.RetrievalResult) []domain.Section {
	seen := make(map[string]bool, len(results))
	var sections []domain.Section
	for _, r := range results {
		if seen[r.Marker] {
			continue
		}
		seen[r.Marker] = true
		if sec, ok := s.index.Section(r.Marker); ok {
			sections = append(sections, sec)
		}
	}
	return sections
}

// generationError classifies an LLM failure. The parent context is checked
// so a caller cancellation is not reported as a collaborator timeout.
func generationError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrTimeout) {
		return fmt.Errorf("%w: %w", domain.ErrGenerationFailed, domain.ErrTimeout)
	}
	if errors.Is(err, domain.ErrGenerationUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	return fmt.Errorf("%w: %w: %w", domain.ErrGenerationFailed, domain.ErrGenerationUnavailable, err)
}
