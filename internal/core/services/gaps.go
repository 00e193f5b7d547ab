package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
)

// GapService reports sections that are empty or too short.
type GapService struct {
	minLength int
	llm       driven.LLMService
	prompts   *PromptBuilder
	timeout   time.Duration
}

// NewGapService creates a gap analyzer. Bodies shorter than minLength runes
// are INCOMPLETE. The llm is optional and only used by Advise.
func NewGapService(minLength int, llm driven.LLMService, prompts *PromptBuilder) *GapService {
	if minLength <= 0 {
		minLength = domain.DefaultMinContentLength
	}
	if prompts == nil {
		prompts = NewPromptBuilder(nil)
	}
	return &GapService{
		minLength: minLength,
		llm:       llm,
		prompts:   prompts,
		timeout:   domain.DefaultGenerationTimeout,
	}
}

// SetGenerationTimeout bounds the Advise call.
func (g *GapService) SetGenerationTimeout(d time.Duration) {
	if d > 0 {
		g.timeout = d
	}
}

// Status classifies a single section body.
func (g *GapService) Status(body string) domain.GapStatus {
	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "":
		return domain.GapEmpty
	case utf8.RuneCountInString(trimmed) < g.minLength:
		return domain.GapIncomplete
	default:
		return domain.GapOK
	}
}

// Analyze builds a gap report over sections. A non-empty scope keeps only
// sections of that domain; "GENERAL" selects sections without a domain.
func (g *GapService) Analyze(sections []domain.Section, scope string) *domain.GapReport {
	scope = strings.ToUpper(strings.TrimSpace(scope))
	report := &domain.GapReport{
		Scope:            scope,
		MinContentLength: g.minLength,
		Totals:           domain.DomainSummary{Domain: "ALL"},
	}

	byDomain := map[string]int{}
	for _, sec := range sections {
		dom := sec.DomainOrDefault()
		if scope != "" && !strings.EqualFold(dom, scope) {
			continue
		}

		status := g.Status(sec.Body)
		report.Sections = append(report.Sections, domain.SectionGap{
			Marker:   sec.Marker,
			Domain:   sec.Domain,
			Position: sec.Position,
			Status:   status,
			Length:   utf8.RuneCountInString(strings.TrimSpace(sec.Body)),
		})

		i, ok := byDomain[dom]
		if !ok {
			i = len(report.Domains)
			byDomain[dom] = i
			report.Domains = append(report.Domains, domain.DomainSummary{Domain: dom})
		}
		tally(&report.Domains[i], status)
		tally(&report.Totals, status)
	}

	logger.Debug("Gap analysis scope=%q: %d sections, %d empty, %d incomplete",
		scope, report.Totals.Total, report.Totals.Empty, report.Totals.Incomplete)
	return report
}

func tally(s *domain.DomainSummary, status domain.GapStatus) {
	s.Total++
	switch status {
	case domain.GapEmpty:
		s.Empty++
	case domain.GapIncomplete:
		s.Incomplete++
	case domain.GapOK:
		s.OK++
	}
}

// Advise asks the LLM for a prioritised narrative of the report's gaps.
func (g *GapService) Advise(ctx context.Context, report *domain.GapReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("%w: missing report", domain.ErrInvalidInput)
	}
	if len(report.Gaps()) == 0 {
		return "No gaps found. Every section meets the minimum content length.", nil
	}
	if g.llm == nil {
		return "", fmt.Errorf("advise: %w", domain.ErrGenerationUnavailable)
	}

	genCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.llm.Generate(genCtx, g.prompts.GapAdvicePrompt(report), driven.GenerateOptions{Temperature: 0.3})
	if err != nil {
		logger.Warn("Gap advice failed: %v", err)
		return "", fmt.Errorf("advise: %w", generationError(ctx, err))
	}
	return strings.TrimSpace(text), nil
}
