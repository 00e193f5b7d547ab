// Package status renders the one-line bar under the chat transcript.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/keymap"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/styles"
	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// State is what the bar reports on its left side.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateAwaiting State = "awaiting"
	StateError    State = "error"
)

// Bar shows the chat state on the left and the relevant key hints on the right.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	marker  string
	stats   *domain.IndexStats
	width   int
}

// NewBar returns a bar in StateReady. Nil arguments take the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init implements tea.Model.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the app drives the bar through its setters.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// View renders the bar at its full width.
func (s *Bar) View() string {
	left, right := s.status(), s.hints()

	padding := s.width - s.styles.StatusBar.GetHorizontalFrameSize() -
		lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) status() string {
	switch s.state {
	case StateThinking:
		return s.styles.Muted.Render("Thinking...")
	case StateAwaiting:
		if s.marker != "" {
			return s.styles.Warning.Render(fmt.Sprintf("Pending edit for [%s]", s.marker))
		}
		return s.styles.Warning.Render("Pending edit")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateReady:
	}

	if s.stats != nil && s.stats.Chunks > 0 {
		return s.styles.Normal.Render(fmt.Sprintf("%d sections, %d chunks", s.stats.Sections, s.stats.Chunks))
	}
	return s.styles.Muted.Render("Ready")
}

// hints lists the bindings that apply now: yes/no while an edit is pending.
func (s *Bar) hints() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StateAwaiting {
		bindings = s.keymap.PendingHelp()
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, b.Help().Key+": "+b.Help().Desc)
	}
	return s.styles.Muted.Render(strings.Join(parts, " | "))
}

// SetState switches what the left side reports.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the text shown in StateError.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the error text.
func (s *Bar) Message() string {
	return s.message
}

// SetPendingMarker sets the section the staged edit targets.
func (s *Bar) SetPendingMarker(marker string) {
	s.marker = marker
}

// PendingMarker returns the section the staged edit targets.
func (s *Bar) PendingMarker() string {
	return s.marker
}

// SetStats sets the index summary shown when idle.
func (s *Bar) SetStats(stats *domain.IndexStats) {
	s.stats = stats
}

// SetWidth follows the terminal width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the rendered width.
func (s *Bar) Width() int {
	return s.width
}

// Clear returns to StateReady and forgets the error and pending marker.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.marker = ""
}
