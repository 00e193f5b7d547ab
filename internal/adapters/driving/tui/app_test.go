package tui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/components/status"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/components/transcript"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/messages"
	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

func newTestApp(t *testing.T, chat *MockChatService, brain *MockBrainService) *App {
	t.Helper()
	ports := &Ports{Chat: chat}
	if brain != nil {
		ports.Brain = brain
	}
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(80, 24)
	return app
}

func typeText(app *App, text string) {
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// send submits a line and feeds the reply back into the app.
func send(t *testing.T, app *App, line string) tea.Cmd {
	t.Helper()
	_, cmd := app.Update(messages.InputSubmitted{Input: line})
	require.NotNil(t, cmd)
	_, next := app.Update(cmd())
	return next
}

func lastEntry(app *App) transcript.Entry {
	entries := app.Transcript()
	return entries[len(entries)-1]
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Chat: &MockChatService{}})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, DefaultSession, app.Session())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingChatService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
}

func TestApp_WithSession(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)

	app.WithSession("")
	assert.Equal(t, DefaultSession, app.Session())

	app.WithSession("alice")
	assert.Equal(t, "alice", app.Session())
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, &MockBrainService{})

	assert.NotNil(t, app.Init())
}

func TestApp_View_BeforeReady(t *testing.T) {
	app, err := NewApp(&Ports{Chat: &MockChatService{}})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Chat: &MockChatService{}})
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "docbrain")
	assert.Contains(t, app.View(), "session tui")
}

func TestApp_TypeAndSubmit(t *testing.T) {
	chat := &MockChatService{
		HandleFunc: func(_ context.Context, sessionID, input string) (*domain.Reply, error) {
			return &domain.Reply{
				Intent: domain.IntentQuery,
				Text:   "The market is growing.\n\nSources: [D1.1]",
			}, nil
		},
	}
	app := newTestApp(t, chat, nil)

	typeText(app, "how big is the market?")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.True(t, app.Busy())
	assert.Equal(t, transcript.Entry{Role: transcript.RoleUser, Text: "how big is the market?"}, lastEntry(app))

	app.Update(cmd())

	assert.False(t, app.Busy())
	assert.Equal(t, []string{"how big is the market?"}, chat.Inputs)
	assert.Equal(t, transcript.RoleBrain, lastEntry(app).Role)
	assert.Contains(t, app.View(), "Sources: [D1.1]")
}

func TestApp_SubmitUsesSession(t *testing.T) {
	var gotSession string
	chat := &MockChatService{
		HandleFunc: func(_ context.Context, sessionID, _ string) (*domain.Reply, error) {
			gotSession = sessionID
			return &domain.Reply{Text: "ok"}, nil
		},
	}
	app := newTestApp(t, chat, nil)
	app.WithSession("bob")

	send(t, app, "hello")

	assert.Equal(t, "bob", gotSession)
}

func TestApp_EmptySubmitIgnored(t *testing.T) {
	chat := &MockChatService{}
	app := newTestApp(t, chat, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, app.Transcript())
	assert.Empty(t, chat.Inputs)
}

func TestApp_BusyIgnoresSubmit(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)

	_, first := app.Update(messages.InputSubmitted{Input: "one"})
	require.NotNil(t, first)

	typeText(app, "two")
	_, second := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, second)
	assert.Len(t, app.Transcript(), 1)
}

func TestApp_PendingEditFlow(t *testing.T) {
	chat := &MockChatService{
		HandleFunc: func(_ context.Context, _, input string) (*domain.Reply, error) {
			switch input {
			case "add churn is 4%":
				return &domain.Reply{
					Intent:  domain.IntentAdd,
					Text:    "Suggested section: [D2.1] (confidence 0.81)",
					Pending: &domain.PendingEdit{TargetMarker: "D2.1", Content: "churn is 4%"},
				}, nil
			case "yes":
				return &domain.Reply{
					Intent: domain.IntentConfirm,
					Text:   "Added to [D2.1] (2 chunks re-indexed).",
					Commit: &domain.CommitResult{Marker: "D2.1", Chunks: 2},
				}, nil
			}
			return nil, fmt.Errorf("unexpected input %q", input)
		},
	}
	app := newTestApp(t, chat, &MockBrainService{})

	next := send(t, app, "add churn is 4%")

	assert.Nil(t, next)
	assert.True(t, app.Awaiting())
	assert.Equal(t, transcript.RolePending, lastEntry(app).Role)
	assert.Equal(t, status.StateAwaiting, app.status.State())
	assert.Equal(t, "D2.1", app.status.PendingMarker())
	assert.Contains(t, app.View(), "Pending edit for [D2.1]")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd)
	_, reload := app.Update(cmd())

	assert.Equal(t, []string{"add churn is 4%", "yes"}, chat.Inputs)
	assert.False(t, app.Awaiting())
	assert.Equal(t, status.StateReady, app.status.State())
	assert.Equal(t, "", app.status.PendingMarker())
	require.NotNil(t, reload, "commit should refresh index stats")
	assert.IsType(t, messages.StatsLoaded{}, reload())
}

func TestApp_RejectKey(t *testing.T) {
	chat := &MockChatService{
		HandleFunc: func(_ context.Context, _, input string) (*domain.Reply, error) {
			if input == "no" {
				return &domain.Reply{Intent: domain.IntentReject, Text: "Discarded."}, nil
			}
			return &domain.Reply{
				Intent:  domain.IntentAdd,
				Text:    "Add to [D1.1]",
				Pending: &domain.PendingEdit{TargetMarker: "D1.1"},
			}, nil
		},
	}
	app := newTestApp(t, chat, nil)
	send(t, app, "note that x in [D1.1]")
	require.True(t, app.Awaiting())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, "no", chat.Inputs[len(chat.Inputs)-1])
	assert.False(t, app.Awaiting())
}

func TestApp_ConfirmKeysIgnoredWithoutPendingEdit(t *testing.T) {
	chat := &MockChatService{}
	app := newTestApp(t, chat, nil)

	_, yes := app.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	_, no := app.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Nil(t, yes)
	assert.Nil(t, no)
	assert.Empty(t, chat.Inputs)
}

func TestApp_HelpKey(t *testing.T) {
	chat := &MockChatService{}
	app := newTestApp(t, chat, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyF1})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, []string{"/help"}, chat.Inputs)
}

func TestApp_ErrorReply(t *testing.T) {
	chat := &MockChatService{
		HandleFunc: func(context.Context, string, string) (*domain.Reply, error) {
			return nil, fmt.Errorf("embedding question: %w", domain.ErrEmbeddingUnavailable)
		},
	}
	app := newTestApp(t, chat, nil)

	send(t, app, "what is x?")

	require.Error(t, app.Err())
	assert.ErrorIs(t, app.Err(), domain.ErrEmbeddingUnavailable)
	entry := lastEntry(app)
	assert.Equal(t, transcript.RoleError, entry.Role)
	assert.Contains(t, entry.Text, "temporarily unavailable")
	assert.Equal(t, status.StateError, app.status.State())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)

	app.Update(messages.ErrorOccurred{Err: fmt.Errorf("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Equal(t, "Error: boom", lastEntry(app).Text)
}

func TestApp_QuitReply(t *testing.T) {
	chat := &MockChatService{
		HandleFunc: func(context.Context, string, string) (*domain.Reply, error) {
			return &domain.Reply{Intent: domain.IntentQuit, Text: "Bye.", Quit: true}, nil
		},
	}
	app := newTestApp(t, chat, nil)

	next := send(t, app, "/quit")

	require.NotNil(t, next)
	assert.IsType(t, tea.QuitMsg{}, next())
}

func TestApp_QuitKey(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_CancelInFlight(t *testing.T) {
	chat := &MockChatService{
		HandleFunc: func(ctx context.Context, _, _ string) (*domain.Reply, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	app := newTestApp(t, chat, nil)

	_, cmd := app.Update(messages.InputSubmitted{Input: "slow question"})
	require.NotNil(t, cmd)

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, app.Busy())
	assert.Equal(t, "Cancelled.", lastEntry(app).Text)

	// The late reply is dropped.
	app.Update(cmd())
	assert.Equal(t, "Cancelled.", lastEntry(app).Text)
	assert.NoError(t, app.Err())
}

func TestApp_EscClearsInput(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)
	typeText(app, "draft")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, "", app.input.Value())
}

func TestApp_ClearKey(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)
	send(t, app, "hello")
	require.NotEmpty(t, app.Transcript())

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Empty(t, app.Transcript())
}

func TestApp_StatsLoaded(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)

	app.Update(messages.StatsLoaded{Stats: &domain.IndexStats{Sections: 12, Chunks: 40}})

	assert.Contains(t, app.View(), "12 sections, 40 chunks")
}

func TestApp_LoadStatsWithoutBrain(t *testing.T) {
	app := newTestApp(t, &MockChatService{}, nil)

	assert.Nil(t, app.loadStats())
}

func TestApp_LoadStats(t *testing.T) {
	brain := &MockBrainService{
		StatsFunc: func(context.Context) (*domain.IndexStats, error) {
			return &domain.IndexStats{Sections: 3, Chunks: 7}, nil
		},
	}
	app := newTestApp(t, &MockChatService{}, brain)

	cmd := app.loadStats()
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.StatsLoaded)

	require.True(t, ok)
	require.NoError(t, msg.Err)
	assert.Equal(t, 7, msg.Stats.Chunks)
}
