package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driving"
)

// REPL is the line-oriented chat used when stdin is not a terminal.
type REPL struct {
	chat    driving.ChatService
	session string
	in      io.Reader
	out     io.Writer

	prompt  *color.Color
	pending *color.Color
	failure *color.Color
}

// NewREPL creates a line-oriented chat over in and out.
func NewREPL(chat driving.ChatService, sessionID string, in io.Reader, out io.Writer) (*REPL, error) {
	if chat == nil {
		return nil, ErrMissingChatService
	}
	if sessionID == "" {
		sessionID = DefaultSession
	}

	return &REPL{
		chat:    chat,
		session: sessionID,
		in:      in,
		out:     out,
		prompt:  color.New(color.FgCyan, color.Bold),
		pending: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
	}, nil
}

// Run reads lines until EOF, a quit reply or ctx is cancelled.
// Collaborator failures are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	awaiting := false

	for {
		if awaiting {
			r.prompt.Fprint(r.out, "? ")
		} else {
			r.prompt.Fprint(r.out, "> ")
		}

		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply, err := r.chat.Handle(ctx, r.session, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			r.failure.Fprintf(r.out, "Error: %v\n", err)
			if domain.IsTransient(err) {
				fmt.Fprintln(r.out, "The service may be temporarily unavailable. Try again in a moment.")
			}
			continue
		}

		switch reply.Intent {
		case domain.IntentAdd, domain.IntentPending:
			if reply.Pending != nil {
				awaiting = true
				r.pending.Fprintln(r.out, reply.Text)
				continue
			}
		case domain.IntentConfirm, domain.IntentRetarget, domain.IntentReject:
			awaiting = false
		}

		fmt.Fprintln(r.out, reply.Text)
		if reply.Quit {
			return nil
		}
	}
}
