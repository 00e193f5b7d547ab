// Package cli provides the cobra command tree for docbrain.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/docbrain/docbrain-cli/internal/core/ports/driving"
	"github.com/docbrain/docbrain-cli/internal/logger"
)

// defaultSession owns pending edits made from one-shot commands, so that
// `docbrain add` and a later `docbrain confirm` meet in the same session.
const defaultSession = "cli"

var (
	// version is set by the build.
	version = "dev"

	verbose bool
	session string
)

// Services used by the commands. Set by main before Execute.
var (
	brainService    driving.BrainService
	chatService     driving.ChatService
	settingsService driving.SettingsService
)

var errBrainNotConfigured = errors.New("brain service not configured")

var rootCmd = &cobra.Command{
	Use:   "docbrain",
	Short: "Query and grow a research document",
	Long: `docbrain answers questions from a [MARKER]-sectioned research document
and files new findings into the right section after you confirm them.

Ask with 'docbrain query', add with 'docbrain add' then 'docbrain confirm',
or start a conversation with 'docbrain chat'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline details to stderr")
	rootCmd.PersistentFlags().StringVarP(&session, "session", "s", defaultSession, "session that owns pending edits")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBrainService sets the orchestrator used by the document commands.
func SetBrainService(s driving.BrainService) {
	brainService = s
}

// SetChatService sets the chat dispatcher used by the chat command.
func SetChatService(s driving.ChatService) {
	chatService = s
}

// SetSettingsService sets the settings service used by the settings command.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// warmIndex builds the in-memory index on first use in this process.
// Vectors already in the store are reused, so only changed chunks are
// embedded.
func warmIndex(ctx context.Context) error {
	if brainService == nil {
		return errBrainNotConfigured
	}
	stats, err := brainService.Stats(ctx)
	if err != nil {
		return explain(err)
	}
	if stats.Generation > 0 {
		return nil
	}

	logger.Info("Loading index")
	if _, err := brainService.Reindex(ctx); err != nil {
		return explain(err)
	}
	return nil
}
