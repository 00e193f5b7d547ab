package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"ctrl+c", "ctrl+d"}},
		{"help", km.Help, []string{"f1"}},
		{"submit", km.Submit, []string{"enter"}},
		{"cancel", km.Cancel, []string{"esc"}},
		{"scroll up", km.ScrollUp, []string{"pgup"}},
		{"scroll down", km.ScrollDown, []string{"pgdown"}},
		{"clear", km.Clear, []string{"ctrl+l"}},
		{"confirm", km.Confirm, []string{"ctrl+y"}},
		{"reject", km.Reject, []string{"ctrl+n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				assert.Contains(t, tt.binding.Keys(), k)
			}
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestDefaultKeyMap_PlainLettersAreFree(t *testing.T) {
	km := DefaultKeyMap()

	// Typing a question must never trigger a binding.
	for _, group := range km.FullHelp() {
		for _, b := range group {
			for _, k := range b.Keys() {
				assert.Greater(t, len(k), 1, "binding %q would swallow a typed character", k)
			}
		}
	}
}

func TestKeyMap_ShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ShortHelp()

	assert.Len(t, help, 3)
}

func TestKeyMap_PendingHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.PendingHelp()

	require.Len(t, help, 3)
	assert.Equal(t, "confirm", help[0].Help().Desc)
	assert.Equal(t, "reject", help[1].Help().Desc)
}

func TestKeyMap_FullHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.FullHelp()

	assert.Len(t, help, 4)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("enter", km.Submit))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.False(t, Matches("q", km.Quit))
	assert.False(t, Matches("x", km.Submit))
}
