package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/services"
)

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Stage a finding for the best matching section",
	Long: `Routes new content to the section it fits best and stages it as a pending
edit. The document is not changed until you run 'docbrain confirm'.

Name the section yourself by ending the text with "in [MARKER]".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var confirmCmd = &cobra.Command{
	Use:   "confirm [MARKER]",
	Short: "Append the pending edit to the document",
	Long: `Appends the pending edit to its suggested section and re-indexes that
section. Pass a marker to file the edit into a different section instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfirm,
}

var rejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Discard the pending edit",
	Args:  cobra.NoArgs,
	RunE:  runReject,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show the pending edit",
	Args:  cobra.NoArgs,
	RunE:  runPending,
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(pendingCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if err := warmIndex(cmd.Context()); err != nil {
		return err
	}

	edit, err := brainService.Add(cmd.Context(), session, strings.Join(args, " "))
	if err != nil {
		return explain(err)
	}

	printPendingEdit(cmd, edit)
	return nil
}

func runConfirm(cmd *cobra.Command, args []string) error {
	if err := warmIndex(cmd.Context()); err != nil {
		return err
	}

	marker := ""
	if len(args) == 1 {
		marker = strings.Trim(strings.TrimSpace(args[0]), "[]")
	}

	result, err := brainService.Confirm(cmd.Context(), session, marker)
	if err != nil {
		return explain(err)
	}

	cmd.Println(services.FormatCommit(result))
	return nil
}

func runReject(cmd *cobra.Command, _ []string) error {
	if brainService == nil {
		return errBrainNotConfigured
	}

	edit, err := brainService.Reject(cmd.Context(), session)
	if err != nil {
		return explain(err)
	}

	cmd.Printf("Discarded the edit for [%s]. The document was not changed.\n", edit.TargetMarker)
	return nil
}

func runPending(cmd *cobra.Command, _ []string) error {
	if brainService == nil {
		return errBrainNotConfigured
	}

	edit, err := brainService.Pending(cmd.Context(), session)
	if errors.Is(err, domain.ErrNoPendingEdit) {
		cmd.Println("There is no pending edit.")
		return nil
	}
	if err != nil {
		return explain(err)
	}

	printPendingEdit(cmd, edit)
	return nil
}

func printPendingEdit(cmd *cobra.Command, edit *domain.PendingEdit) {
	if edit.Explicit {
		cmd.Printf("Add to [%s]:\n", edit.TargetMarker)
	} else {
		cmd.Printf("Suggested section: [%s] (confidence %.2f)\n", edit.TargetMarker, edit.Confidence)
	}
	cmd.Printf("  %s\n", edit.Content)
	if edit.LowConfidence {
		cmd.Println("Low confidence: check the target before confirming.")
	}
	cmd.Println()
	if !edit.ExpiresAt.IsZero() {
		cmd.Printf("Expires at %s.\n", edit.ExpiresAt.Local().Format("15:04:05"))
	}
	cmd.Println("Run 'docbrain confirm' to append it, 'docbrain confirm MARKER' to file it elsewhere,")
	cmd.Println("or 'docbrain reject' to discard it.")
}
