package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docbrain/docbrain-cli/internal/adapters/driving/tui"
)

// chatCmd represents the chat command.
var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Start a conversation with the document",
	Long: `Starts an interactive conversation. Ask questions in plain language, add
findings with "add ..." or "remember that ...", and answer yes or no when
an edit is staged. Type /help for the full list of commands.

On a terminal this opens the full-screen chat; when input is piped it reads
one line at a time instead.

Controls:
  Enter    - Send
  Ctrl+Y   - Confirm the pending edit
  Ctrl+N   - Reject the pending edit
  F1       - Help
  Esc      - Clear input / cancel request
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	if err := warmIndex(cmd.Context()); err != nil {
		// Chat still works for /reindex, /help and retargeting.
		cmd.PrintErrf("Warning: %v\n", err)
	}

	id := tui.DefaultSession
	if cmd.Flags().Changed("session") {
		id = session
	}

	if !isTerminal(cmd) {
		repl, err := tui.NewREPL(chatService, id, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return repl.Run(cmd.Context())
	}

	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(chatService, brainService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context()).WithSession(id)

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// isTerminal reports whether the command reads from and writes to a terminal.
func isTerminal(cmd *cobra.Command) bool {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return false
	}
	out, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}
