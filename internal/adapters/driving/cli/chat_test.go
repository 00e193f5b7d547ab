package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui"
	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat", chatCmd.Use)
	assert.Contains(t, chatCmd.Aliases, "tui")
	assert.Contains(t, chatCmd.Long, "Ctrl+Y")
}

func TestChatCmd_NoChatService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	chatService = nil

	_, err := run(t, "chat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat service not configured")
}

func TestChatCmd_PipedInputUsesREPL(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.chat.HandleFunc = func(_ context.Context, _, input string) (*domain.Reply, error) {
		if input == "/quit" {
			return &domain.Reply{Intent: domain.IntentQuit, Text: "Bye.", Quit: true}, nil
		}
		return &domain.Reply{Intent: domain.IntentQuery, Text: "answer: " + input}, nil
	}
	rootCmd.SetIn(strings.NewReader("what is churn?\n/quit\nnever read\n"))

	out, err := run(t, "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "answer: what is churn?")
	assert.Contains(t, out, "Bye.")
	assert.NotContains(t, out, "never read")
	assert.Equal(t, []string{tui.DefaultSession, tui.DefaultSession}, ts.chat.Sessions)
}

func TestChatCmd_TUIAlias(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("hello\n"))

	out, err := run(t, "tui")

	require.NoError(t, err)
	assert.Contains(t, out, "echo: hello")
	assert.Len(t, ts.chat.Sessions, 1)
}

func TestChatCmd_SessionFlag(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("hello\n"))

	_, err := run(t, "chat", "--session", "alice")

	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ts.chat.Sessions)
}

func TestChatCmd_WarnsWhenIndexFails(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.brain.StatsFunc = func(context.Context) (*domain.IndexStats, error) {
		return &domain.IndexStats{}, nil
	}
	ts.brain.ReindexFunc = func(context.Context) (*domain.ReindexResult, error) {
		return nil, domain.ErrEmbeddingUnavailable
	}
	rootCmd.SetIn(strings.NewReader("hello\n"))

	out, err := run(t, "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: the embedding service is unavailable")
	assert.Contains(t, out, "echo: hello")
}

func TestIsTerminal_NonFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader(""))

	assert.False(t, isTerminal(rootCmd))
}
