// Package styles holds the chat's colours and lipgloss styles.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette names the colours by role. Each colour adapts to light and dark
// terminals.
type Palette struct {
	Accent  lipgloss.AdaptiveColor // titles and the prompt
	Person  lipgloss.AdaptiveColor // the user's turns
	Text    lipgloss.AdaptiveColor
	Dim     lipgloss.AdaptiveColor // hints and idle status
	Pending lipgloss.AdaptiveColor // staged edits awaiting yes/no
	Error   lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
	Surface lipgloss.AdaptiveColor // status bar background
}

// DefaultPalette returns docbrain's colours.
func DefaultPalette() Palette {
	return Palette{
		Accent:  lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"},
		Person:  lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#67E8F9"},
		Text:    lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Dim:     lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Pending: lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"},
		Error:   lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"},
		Border:  lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
		Surface: lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"},
	}
}

// Styles are the rendered styles shared by the chat components.
type Styles struct {
	Title        lipgloss.Style
	Normal       lipgloss.Style
	Muted        lipgloss.Style
	Warning      lipgloss.Style
	Error        lipgloss.Style
	InputField   lipgloss.Style
	StatusBar    lipgloss.Style
	UserMessage  lipgloss.Style
	BrainMessage lipgloss.Style

	// Citation renders the "Sources: [D1:DEFINITION] ..." line under an answer.
	Citation lipgloss.Style

	// Pending frames a staged edit with a left rule.
	Pending lipgloss.Style
}

// NewStyles builds styles from p.
func NewStyles(p Palette) *Styles {
	return &Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Normal:       lipgloss.NewStyle().Foreground(p.Text),
		Muted:        lipgloss.NewStyle().Foreground(p.Dim),
		Warning:      lipgloss.NewStyle().Foreground(p.Pending),
		Error:        lipgloss.NewStyle().Foreground(p.Error),
		UserMessage:  lipgloss.NewStyle().Bold(true).Foreground(p.Person),
		BrainMessage: lipgloss.NewStyle().Foreground(p.Text),
		Citation:     lipgloss.NewStyle().Italic(true).Foreground(p.Accent),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Dim).
			Background(p.Surface).
			Padding(0, 1),

		Pending: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(p.Pending).
			PaddingLeft(1).
			Foreground(p.Pending),
	}
}

// DefaultStyles returns styles for DefaultPalette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}
