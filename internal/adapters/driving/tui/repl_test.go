package tui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

func TestNewREPL_RequiresChat(t *testing.T) {
	repl, err := NewREPL(nil, "", strings.NewReader(""), &bytes.Buffer{})

	assert.ErrorIs(t, err, ErrMissingChatService)
	assert.Nil(t, repl)
}

func TestREPL_Conversation(t *testing.T) {
	var sessions []string
	chat := &MockChatService{
		HandleFunc: func(_ context.Context, sessionID, input string) (*domain.Reply, error) {
			sessions = append(sessions, sessionID)
			switch input {
			case "add churn is 4%":
				return &domain.Reply{
					Intent:  domain.IntentAdd,
					Text:    "Suggested section: [D2.1]",
					Pending: &domain.PendingEdit{TargetMarker: "D2.1"},
				}, nil
			case "yes":
				return &domain.Reply{Intent: domain.IntentConfirm, Text: "Added to [D2.1]."}, nil
			}
			return &domain.Reply{Intent: domain.IntentQuery, Text: "answer to " + input}, nil
		},
	}
	out := &bytes.Buffer{}
	repl, err := NewREPL(chat, "", strings.NewReader("what is x?\n\nadd churn is 4%\nyes\n"), out)
	require.NoError(t, err)

	err = repl.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"what is x?", "add churn is 4%", "yes"}, chat.Inputs)
	assert.Equal(t, []string{DefaultSession, DefaultSession, DefaultSession}, sessions)

	text := out.String()
	assert.Contains(t, text, "answer to what is x?")
	assert.Contains(t, text, "Suggested section: [D2.1]\n? ")
	assert.Contains(t, text, "Added to [D2.1].")
}

func TestREPL_StopsOnQuit(t *testing.T) {
	chat := &MockChatService{
		HandleFunc: func(context.Context, string, string) (*domain.Reply, error) {
			return &domain.Reply{Intent: domain.IntentQuit, Text: "Bye.", Quit: true}, nil
		},
	}
	out := &bytes.Buffer{}
	repl, err := NewREPL(chat, "s1", strings.NewReader("/quit\nnever read\n"), out)
	require.NoError(t, err)

	require.NoError(t, repl.Run(context.Background()))

	assert.Equal(t, []string{"/quit"}, chat.Inputs)
	assert.Contains(t, out.String(), "Bye.")
}

func TestREPL_ContinuesAfterError(t *testing.T) {
	calls := 0
	chat := &MockChatService{
		HandleFunc: func(context.Context, string, string) (*domain.Reply, error) {
			calls++
			if calls == 1 {
				return nil, fmt.Errorf("generating: %w", domain.ErrGenerationUnavailable)
			}
			return &domain.Reply{Text: "recovered"}, nil
		},
	}
	out := &bytes.Buffer{}
	repl, err := NewREPL(chat, "", strings.NewReader("one\ntwo\n"), out)
	require.NoError(t, err)

	require.NoError(t, repl.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Error: generating: generation service unavailable")
	assert.Contains(t, text, "temporarily unavailable")
	assert.Contains(t, text, "recovered")
}

func TestREPL_CancelledContext(t *testing.T) {
	chat := &MockChatService{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repl, err := NewREPL(chat, "", strings.NewReader("hello\n"), &bytes.Buffer{})
	require.NoError(t, err)

	assert.ErrorIs(t, repl.Run(ctx), context.Canceled)
	assert.Empty(t, chat.Inputs)
}
