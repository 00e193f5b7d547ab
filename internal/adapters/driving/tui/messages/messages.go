// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// InputSubmitted is sent when the user sends a line.
type InputSubmitted struct {
	Input string
}

// ReplyReceived carries the chat service's reply back to the model.
type ReplyReceived struct {
	Input string
	Reply *domain.Reply
	Err   error
}

// StatsLoaded carries the index summary shown in the status bar.
type StatsLoaded struct {
	Stats *domain.IndexStats
	Err   error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
