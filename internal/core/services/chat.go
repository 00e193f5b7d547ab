package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driving"
)

// Verify interface compliance.
var _ driving.ChatService = (*ChatService)(nil)

// HelpText lists the commands understood in a chat session.
const HelpText = `Ask a question in plain language, or store a finding:
  add <text>                 route text to the best section and ask to confirm
  remember that <text>       same as add (also: save, note, don't forget, ...)
  <text> in [MARKER]         name the target section explicitly

While an edit is pending:
  yes / no                   confirm or discard it
  [MARKER]                   confirm it into a different section

Directives:
  /reindex                   re-read and re-embed the document
  /gaps [DOMAIN]             list empty and incomplete sections
  /markers                   list section markers by domain
  /stats                     index and completion statistics
  /pending                   show the pending edit
  /help                      this help
  /quit                      leave`

// ChatService turns free-form input into orchestrator calls for one
// conversational front end (TUI, REPL, HTTP chat endpoint).
type ChatService struct {
	brain driving.BrainService
}

// NewChatService creates a chat dispatcher over the orchestrator.
func NewChatService(brain driving.BrainService) *ChatService {
	return &ChatService{brain: brain}
}

// Handle classifies input in the context of the session and executes it.
//
// Usage errors (no pending edit, unknown marker, empty index) are rendered
// into the reply text. Collaborator failures are returned as errors.
func (c *ChatService) Handle(ctx context.Context, sessionID, input string) (*domain.Reply, error) {
	_, pendingErr := c.brain.Pending(ctx, sessionID)
	awaiting := pendingErr == nil

	cmd := ClassifyCommand(input, awaiting)
	reply, err := c.dispatch(ctx, sessionID, cmd)
	if err != nil {
		if msg, ok := UsageMessage(err); ok {
			return &domain.Reply{Intent: cmd.Intent, Text: msg}, nil
		}
		return nil, err
	}
	reply.Intent = cmd.Intent
	return reply, nil
}

func (c *ChatService) dispatch(ctx context.Context, sessionID string, cmd domain.Command) (*domain.Reply, error) {
	switch cmd.Intent {
	case domain.IntentQuery:
		if cmd.Text == "" {
			return &domain.Reply{Text: "Ask a question, or type /help."}, nil
		}
		answer, err := c.brain.Query(ctx, cmd.Text, domain.QueryOptions{})
		if err != nil {
			return nil, err
		}
		return &domain.Reply{Text: FormatAnswer(answer), Answer: answer}, nil

	case domain.IntentAdd:
		edit, err := c.brain.Add(ctx, sessionID, cmd.Text)
		if err != nil {
			return nil, err
		}
		return &domain.Reply{Text: FormatPendingEdit(edit), Pending: edit}, nil

	case domain.IntentConfirm, domain.IntentRetarget:
		result, err := c.brain.Confirm(ctx, sessionID, cmd.Marker)
		if err != nil {
			return nil, err
		}
		return &domain.Reply{Text: FormatCommit(result), Commit: result}, nil

	case domain.IntentReject:
		edit, err := c.brain.Reject(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &domain.Reply{
			Text:    fmt.Sprintf("Discarded the edit for [%s]. The document was not changed.", edit.TargetMarker),
			Pending: edit,
		}, nil

	case domain.IntentPending:
		edit, err := c.brain.Pending(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &domain.Reply{Text: FormatPendingEdit(edit), Pending: edit}, nil

	case domain.IntentReindex:
		result, err := c.brain.Reindex(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.Reply{Text: FormatReindex(result), Reindex: result}, nil

	case domain.IntentGaps:
		report, err := c.brain.AnalyzeGaps(ctx, cmd.Scope)
		if err != nil {
			return nil, err
		}
		return &domain.Reply{Text: FormatGapReport(report), Gaps: report}, nil

	case domain.IntentMarkers:
		secs, err := c.brain.ListMarkers(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.Reply{Text: FormatMarkers(secs), Sections: secs}, nil

	case domain.IntentStats:
		stats, err := c.brain.Stats(ctx)
		if err != nil {
			return nil, err
		}
		text := FormatStats(stats)
		if report, gapErr := c.brain.AnalyzeGaps(ctx, ""); gapErr == nil {
			text += "\n\n" + FormatCompletion(report)
		}
		return &domain.Reply{Text: text, Stats: stats}, nil

	case domain.IntentHelp:
		return &domain.Reply{Text: HelpText}, nil

	case domain.IntentQuit:
		return &domain.Reply{Text: "Bye.", Quit: true}, nil

	default:
		return &domain.Reply{Text: fmt.Sprintf("Unknown command %s. Type /help for the list.", cmd.Text)}, nil
	}
}

// UsageMessage renders errors that the user can act on. It returns false
// for collaborator failures.
func UsageMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrEmptyIndex):
		return "The index is empty. Run /reindex (or `docbrain reindex`) first.", true
	case errors.Is(err, domain.ErrNoMarkers):
		return "The document has no [MARKER] headings, so nothing can be indexed.", true
	case errors.Is(err, domain.ErrMarkerNotFound):
		return fmt.Sprintf("%v. Use /markers to list the available sections.", err), true
	case errors.Is(err, domain.ErrConflictingPendingEdit):
		return fmt.Sprintf("%v. Confirm (yes) or reject (no) it first.", err), true
	case errors.Is(err, domain.ErrNoPendingEdit):
		if strings.Contains(err.Error(), "expired") {
			return "The pending edit expired. Add the content again.", true
		}
		return "There is no pending edit.", true
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Sprintf("%v.", err), true
	}
	return "", false
}

// FormatAnswer renders an answer with its sources.
func FormatAnswer(a *domain.Answer) string {
	var sb strings.Builder
	sb.WriteString(a.Text)
	if len(a.Citations) > 0 {
		sb.WriteString("\n\nSources: ")
		for i, m := range a.Citations {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("[" + m + "]")
		}
	} else if !a.Grounded {
		sb.WriteString("\n\n(No section of the document matched this question.)")
	}
	return sb.String()
}

// FormatPendingEdit renders a staged edit and how to resolve it.
func FormatPendingEdit(e *domain.PendingEdit) string {
	var sb strings.Builder
	if e.Explicit {
		fmt.Fprintf(&sb, "Add to [%s]:\n", e.TargetMarker)
	} else {
		fmt.Fprintf(&sb, "Suggested section: [%s] (confidence %.2f)\n", e.TargetMarker, e.Confidence)
	}
	fmt.Fprintf(&sb, "  %s\n", e.Content)
	if e.LowConfidence {
		sb.WriteString("Low confidence: check the target before confirming.\n")
	}
	sb.WriteString("Confirm with yes, discard with no, or type a different [MARKER].")
	return sb.String()
}

// FormatCommit renders a committed edit.
func FormatCommit(r *domain.CommitResult) string {
	return fmt.Sprintf("Added to [%s] (%d chunks re-indexed).", r.Marker, r.Chunks)
}

// FormatReindex renders a reindex result.
func FormatReindex(r *domain.ReindexResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Indexed %d sections (%d chunks, %d reused).",
		r.SectionsIndexed, r.ChunksIndexed, r.ChunksReused)
	for _, w := range r.Warnings {
		sb.WriteString("\nwarning: " + w.String())
	}
	return sb.String()
}

// FormatGapReport lists the gaps of a report grouped by domain.
func FormatGapReport(r *domain.GapReport) string {
	gaps := r.Gaps()
	if len(gaps) == 0 {
		if r.Scope != "" {
			return fmt.Sprintf("No gaps in %s.", r.Scope)
		}
		return "No gaps found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of %d sections need work:\n", len(gaps), r.Totals.Total)
	current := ""
	for _, g := range gaps {
		dom := domainLabel(g.Domain)
		if dom != current {
			fmt.Fprintf(&sb, "\n%s\n", dom)
			current = dom
		}
		fmt.Fprintf(&sb, "  [%s] %s", g.Marker, g.Status)
		if g.Status == domain.GapIncomplete {
			fmt.Fprintf(&sb, " (%d chars)", g.Length)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatCompletion renders per-domain completion percentages.
func FormatCompletion(r *domain.GapReport) string {
	var sb strings.Builder
	sb.WriteString("Completion:")
	for _, d := range r.Domains {
		fmt.Fprintf(&sb, "\n  %-10s %5.1f%%  (%d ok, %d incomplete, %d empty)",
			d.Domain, d.PercentComplete(), d.OK, d.Incomplete, d.Empty)
	}
	fmt.Fprintf(&sb, "\n  %-10s %5.1f%%", "TOTAL", r.Totals.PercentComplete())
	return sb.String()
}

// FormatMarkers lists markers grouped by domain in document order.
func FormatMarkers(secs []domain.Section) string {
	if len(secs) == 0 {
		return "No sections indexed."
	}

	var order []string
	groups := map[string][]string{}
	for _, s := range secs {
		dom := s.DomainOrDefault()
		if _, ok := groups[dom]; !ok {
			order = append(order, dom)
		}
		label := s.Heading()
		if s.IsEmpty() {
			label += " (empty)"
		}
		groups[dom] = append(groups[dom], label)
	}

	var sb strings.Builder
	for i, dom := range order {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(dom + "\n")
		for _, label := range groups[dom] {
			sb.WriteString("  " + label + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatStats renders index statistics.
func FormatStats(s *domain.IndexStats) string {
	if s.Generation == 0 {
		return "Index: not built yet."
	}
	return fmt.Sprintf("Index generation %d: %d sections (%d empty), %d chunks, model %s",
		s.Generation, s.Sections, s.EmptySections, s.Chunks, s.Model)
}
