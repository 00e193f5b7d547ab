package transcript

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/styles"
)

func TestNew(t *testing.T) {
	tr := New(styles.DefaultStyles())

	require.NotNil(t, tr)
	assert.Equal(t, 0, tr.Len())
	assert.Nil(t, tr.Init())
}

func TestNew_NilStyles(t *testing.T) {
	tr := New(nil)

	require.NotNil(t, tr)
	assert.NotNil(t, tr.styles)
}

func TestTranscript_EmptyView(t *testing.T) {
	tr := New(nil)
	tr.SetSize(80, 10)

	assert.Contains(t, tr.View(), "/help")
}

func TestTranscript_Add(t *testing.T) {
	tr := New(nil)
	tr.SetSize(80, 20)

	tr.Add(RoleUser, "what is the market size?")
	tr.Add(RoleBrain, "About 4 billion.\n\nSources: [D1.1]")

	require.Equal(t, 2, tr.Len())
	assert.Equal(t, Entry{Role: RoleUser, Text: "what is the market size?"}, tr.Entries()[0])
	assert.Equal(t, RoleBrain, tr.Entries()[1].Role)

	view := tr.View()
	assert.Contains(t, view, "what is the market size?")
	assert.Contains(t, view, "About 4 billion.")
	assert.Contains(t, view, "Sources: [D1.1]")
}

func TestTranscript_AddTrimsTrailingNewlines(t *testing.T) {
	tr := New(nil)

	tr.Add(RoleBrain, "done\n\n")

	assert.Equal(t, "done", tr.Entries()[0].Text)
}

func TestTranscript_RendersRoles(t *testing.T) {
	tests := []struct {
		name string
		role Role
		text string
	}{
		{"pending", RolePending, "Suggested section: [D2.1]"},
		{"error", RoleError, "embedding service unavailable"},
		{"brain without sources", RoleBrain, "Indexed 3 sections."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(nil)
			tr.SetSize(80, 10)

			tr.Add(tt.role, tt.text)

			assert.Contains(t, tr.View(), tt.text)
		})
	}
}

func TestTranscript_FollowsNewestEntry(t *testing.T) {
	tr := New(nil)
	tr.SetSize(40, 3)

	for i := 0; i < 10; i++ {
		tr.Add(RoleBrain, "line")
	}
	tr.Add(RoleBrain, "newest")

	assert.True(t, tr.AtBottom())
	assert.Contains(t, tr.View(), "newest")
}

func TestTranscript_Scroll(t *testing.T) {
	tr := New(nil)
	tr.SetSize(40, 3)
	for i := 0; i < 10; i++ {
		tr.Add(RoleBrain, "line")
	}

	tr.PageUp()
	assert.False(t, tr.AtBottom())

	for i := 0; i < 20; i++ {
		tr.PageDown()
	}
	assert.True(t, tr.AtBottom())
}

func TestTranscript_Clear(t *testing.T) {
	tr := New(nil)
	tr.Add(RoleUser, "hello")

	tr.Clear()

	assert.Equal(t, 0, tr.Len())
	assert.Contains(t, tr.View(), "/help")
}

func TestTranscript_SetSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"normal", 100, 30, 100, 30},
		{"clamped", 5, 1, 20, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(nil)

			tr.SetSize(tt.width, tt.height)

			assert.Equal(t, tt.wantW, tr.Width())
			assert.Equal(t, tt.wantH, tr.Height())
		})
	}
}

func TestTranscript_UpdateIgnoresKeys(t *testing.T) {
	tr := New(nil)

	updated, cmd := tr.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, tr, updated)
	assert.Nil(t, cmd)
}
