package services

import (
	"fmt"
	"strings"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
)

// PromptBuilder renders LLM prompts from templates.
// Templates come from the optional PromptStore, falling back to the defaults.
type PromptBuilder struct {
	store    driven.PromptStore
	defaults map[string]string
}

// NewPromptBuilder creates a prompt builder. The store may be nil.
func NewPromptBuilder(store driven.PromptStore) *PromptBuilder {
	return &PromptBuilder{store: store, defaults: driven.DefaultPrompts()}
}

func (b *PromptBuilder) template(name string) string {
	if b.store != nil {
		if t, err := b.store.Load(name); err == nil && t != "" {
			return t
		}
		logger.Debug("Prompt %q unavailable, using default", name)
	}
	return b.defaults[name]
}

// AnswerMessages builds the chat messages for a grounded answer. Only the
// given sections are included, never the whole document.
func (b *PromptBuilder) AnswerMessages(question string, contexts []domain.Section) []driven.ChatMessage {
	return []driven.ChatMessage{
		{Role: "system", Content: b.template(driven.PromptAnswerSystem)},
		{Role: "user", Content: b.AnswerPrompt(question, contexts)},
	}
}

// AnswerPrompt renders the user turn: labelled context sections, then the question.
func (b *PromptBuilder) AnswerPrompt(question string, contexts []domain.Section) string {
	var sb strings.Builder
	sb.WriteString("Context:\n\n")
	if len(contexts) == 0 {
		sb.WriteString(b.template(driven.PromptNoContext))
		sb.WriteString("\n\n")
	}
	for _, sec := range contexts {
		sb.WriteString(sec.Heading())
		sb.WriteString("\n")
		sb.WriteString(sec.Body)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}

// GapAdvicePrompt renders the gap narrative request for a report.
func (b *PromptBuilder) GapAdvicePrompt(report *domain.GapReport) string {
	var sb strings.Builder
	for _, g := range report.Gaps() {
		fmt.Fprintf(&sb, "- [%s] (%s): %s\n", g.Marker, domainLabel(g.Domain), g.Status)
	}
	tmpl := b.template(driven.PromptGapAdvice)
	if !strings.Contains(tmpl, "%s") {
		return tmpl + "\n\n" + sb.String()
	}
	return fmt.Sprintf(tmpl, strings.TrimRight(sb.String(), "\n"))
}

func domainLabel(d string) string {
	if d == "" {
		return domain.GeneralDomain
	}
	return d
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
