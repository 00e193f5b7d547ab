// Package transcript provides the scrolling conversation view for the TUI.
package transcript

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/styles"
)

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser    Role = "user"
	RoleBrain   Role = "brain"
	RolePending Role = "pending"
	RoleError   Role = "error"
)

// Entry is one message in the conversation.
type Entry struct {
	Role Role
	Text string
}

// Transcript renders the conversation inside a viewport that follows
// the newest entry.
type Transcript struct {
	styles   *styles.Styles
	viewport viewport.Model
	entries  []Entry
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &Transcript{
		styles:   s,
		viewport: viewport.New(80, 20),
	}
}

// Init initialises the transcript.
func (t *Transcript) Init() tea.Cmd {
	return nil
}

// Update forwards mouse wheel events to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	if _, ok := msg.(tea.MouseMsg); !ok {
		return t, nil
	}
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the conversation.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// Add appends an entry and scrolls to it.
func (t *Transcript) Add(role Role, text string) {
	t.entries = append(t.entries, Entry{Role: role, Text: strings.TrimRight(text, "\n")})
	t.refresh()
	t.viewport.GotoBottom()
}

// Entries returns the conversation so far.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Clear empties the conversation.
func (t *Transcript) Clear() {
	t.entries = nil
	t.refresh()
	t.viewport.GotoTop()
}

// SetSize resizes the viewport and rewraps the content.
func (t *Transcript) SetSize(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
	t.viewport.GotoBottom()
}

// Width returns the viewport width.
func (t *Transcript) Width() int {
	return t.viewport.Width
}

// Height returns the viewport height.
func (t *Transcript) Height() int {
	return t.viewport.Height
}

// PageUp scrolls up one page.
func (t *Transcript) PageUp() {
	t.viewport.ViewUp()
}

// PageDown scrolls down one page.
func (t *Transcript) PageDown() {
	t.viewport.ViewDown()
}

// AtBottom reports whether the newest entry is visible.
func (t *Transcript) AtBottom() bool {
	return t.viewport.AtBottom()
}

func (t *Transcript) refresh() {
	if len(t.entries) == 0 {
		t.viewport.SetContent(t.styles.Muted.Render("Ask a question about the document, or type /help."))
		return
	}

	blocks := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		blocks = append(blocks, t.render(e))
	}
	t.viewport.SetContent(strings.Join(blocks, "\n\n"))
}

func (t *Transcript) render(e Entry) string {
	wrap := lipgloss.NewStyle().Width(t.viewport.Width - 2)

	switch e.Role {
	case RoleUser:
		return t.styles.UserMessage.Render("> ") + wrap.Render(e.Text)
	case RolePending:
		return t.styles.Pending.Width(t.viewport.Width - 2).Render(e.Text)
	case RoleError:
		return t.styles.Error.Width(t.viewport.Width - 2).Render(e.Text)
	case RoleBrain:
	}
	return t.renderBrain(e.Text, wrap)
}

// renderBrain highlights the trailing sources line of an answer.
func (t *Transcript) renderBrain(text string, wrap lipgloss.Style) string {
	body, sources, found := strings.Cut(text, "\n\nSources: ")
	out := t.styles.BrainMessage.Inherit(wrap).Render(body)
	if found {
		out += "\n\n" + t.styles.Citation.Render("Sources: "+sources)
	}
	return out
}
