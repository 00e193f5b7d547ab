package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/components/input"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/components/status"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/components/transcript"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/keymap"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/messages"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui/styles"
	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// DefaultSession is the session ID used when none is given.
const DefaultSession = "tui"

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for requests issued by the app.
	ctx context.Context

	// session scopes pending edits to this conversation.
	session string

	styles     *styles.Styles
	keymap     *keymap.KeyMap
	transcript *transcript.Transcript
	input      *input.ChatInput
	status     *status.Bar

	// awaiting is true while an edit is staged for this session.
	awaiting bool

	// busy is true while a request is in flight.
	busy bool

	// cancel abandons the request in flight.
	cancel context.CancelFunc

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its first window size.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat TUI with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		session:    DefaultSession,
		styles:     s,
		keymap:     km,
		transcript: transcript.New(s),
		input:      input.NewChatInput(s),
		status:     status.NewBar(s, km),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithSession sets the session that owns pending edits.
func (a *App) WithSession(sessionID string) *App {
	if sessionID != "" {
		a.session = sessionID
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("docbrain"),
		a.input.Init(),
		a.loadStats(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd

	case messages.InputSubmitted:
		return a, a.submit(msg.Input)

	case messages.ReplyReceived:
		return a, a.handleReply(msg)

	case messages.StatsLoaded:
		if msg.Err == nil {
			a.status.SetStats(msg.Stats)
		}
		return a, nil

	case messages.ErrorOccurred:
		a.showError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	switch {
	case keymap.Matches(k, a.keymap.Quit):
		a.abort()
		return a, tea.Quit

	case keymap.Matches(k, a.keymap.Cancel):
		if a.busy {
			a.abort()
			return a, nil
		}
		a.input.Reset()
		return a, nil

	case keymap.Matches(k, a.keymap.ScrollUp):
		a.transcript.PageUp()
		return a, nil

	case keymap.Matches(k, a.keymap.ScrollDown):
		a.transcript.PageDown()
		return a, nil

	case keymap.Matches(k, a.keymap.Clear):
		a.transcript.Clear()
		return a, nil
	}

	if a.busy {
		return a, nil
	}

	switch {
	case keymap.Matches(k, a.keymap.Submit):
		return a, a.submit(a.input.Value())

	case keymap.Matches(k, a.keymap.Help):
		return a, a.submit("/help")

	case keymap.Matches(k, a.keymap.Confirm):
		if a.awaiting {
			return a, a.submit("yes")
		}
		return a, nil

	case keymap.Matches(k, a.keymap.Reject):
		if a.awaiting {
			return a, a.submit("no")
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit echoes the line and hands it to the chat service.
func (a *App) submit(line string) tea.Cmd {
	line = strings.TrimSpace(line)
	if line == "" || a.busy {
		return nil
	}

	a.transcript.Add(transcript.RoleUser, line)
	a.input.Reset()
	a.busy = true
	a.err = nil
	a.status.SetState(status.StateThinking)

	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	chat := a.ports.Chat
	session := a.session

	return func() tea.Msg {
		defer cancel()
		reply, err := chat.Handle(ctx, session, line)
		return messages.ReplyReceived{Input: line, Reply: reply, Err: err}
	}
}

func (a *App) handleReply(msg messages.ReplyReceived) tea.Cmd {
	if !a.busy {
		// Abandoned with esc.
		return nil
	}
	a.busy = false
	a.cancel = nil

	if msg.Err != nil {
		a.showError(msg.Err)
		return nil
	}

	reply := msg.Reply
	if reply == nil {
		a.status.SetState(status.StateReady)
		return nil
	}
	role := transcript.RoleBrain

	switch reply.Intent {
	case domain.IntentAdd, domain.IntentPending:
		if reply.Pending != nil {
			role = transcript.RolePending
			a.awaiting = true
			a.status.SetPendingMarker(reply.Pending.TargetMarker)
		}
	case domain.IntentConfirm, domain.IntentRetarget, domain.IntentReject:
		a.awaiting = false
	}

	a.transcript.Add(role, reply.Text)
	a.input.SetAwaiting(a.awaiting)
	a.status.SetMessage("")
	if a.awaiting {
		a.status.SetState(status.StateAwaiting)
	} else {
		a.status.SetPendingMarker("")
		a.status.SetState(status.StateReady)
	}

	if reply.Quit {
		return tea.Quit
	}
	if reply.Commit != nil || reply.Reindex != nil {
		return a.loadStats()
	}
	if reply.Stats != nil {
		a.status.SetStats(reply.Stats)
	}
	return nil
}

func (a *App) showError(err error) {
	if err == nil {
		return
	}
	a.err = err
	text := "Error: " + err.Error()
	if domain.IsTransient(err) {
		text += "\nThe service may be temporarily unavailable. Try again in a moment."
	}
	a.transcript.Add(transcript.RoleError, text)
	a.status.SetState(status.StateError)
	a.status.SetMessage(err.Error())
}

// abort cancels the request in flight, if any.
func (a *App) abort() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.busy {
		a.busy = false
		a.transcript.Add(transcript.RoleError, "Cancelled.")
		a.status.SetState(status.StateReady)
	}
}

func (a *App) loadStats() tea.Cmd {
	if a.ports.Brain == nil {
		return nil
	}
	brain := a.ports.Brain
	ctx := a.ctx
	return func() tea.Msg {
		stats, err := brain.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	header := a.styles.Title.Render("docbrain") + "  " +
		a.styles.Muted.Render("session "+a.session)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		a.transcript.View(),
		a.input.View(),
		a.status.View(),
	)
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// SetDimensions lays out the components for the terminal size.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	// header, bordered input (3 lines) and status bar
	a.transcript.SetSize(width, height-5)
	a.input.SetWidth(width)
	a.status.SetWidth(width)
}

// Session returns the session that owns pending edits.
func (a *App) Session() string {
	return a.session
}

// Awaiting reports whether an edit is staged for confirmation.
func (a *App) Awaiting() bool {
	return a.awaiting
}

// Busy reports whether a request is in flight.
func (a *App) Busy() bool {
	return a.busy
}

// Transcript returns the conversation so far.
func (a *App) Transcript() []transcript.Entry {
	return a.transcript.Entries()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}
