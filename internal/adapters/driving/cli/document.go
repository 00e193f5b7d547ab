package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/services"
)

var (
	gapsAdvise    bool
	markersDomain string
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-read the document and rebuild the index",
	Long: `Fetches the research document, parses its [MARKER] sections and embeds
every chunk. Chunks whose text and model are unchanged reuse their stored
vectors.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

var gapsCmd = &cobra.Command{
	Use:   "gaps [DOMAIN]",
	Short: "List empty and incomplete sections",
	Long: `Lists sections whose body is empty or shorter than the configured minimum
content length, grouped by domain, followed by completion percentages.

Pass a domain (e.g. D1) to limit the report, and --advise to ask the LLM
which gaps to fill first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGaps,
}

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "List section markers by domain",
	Args:  cobra.NoArgs,
	RunE:  runMarkers,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and completion statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	gapsCmd.Flags().BoolVar(&gapsAdvise, "advise", false, "ask the LLM to prioritise the gaps")
	markersCmd.Flags().StringVarP(&markersDomain, "domain", "d", "", "only list markers of this domain")
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(markersCmd)
	rootCmd.AddCommand(statsCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if brainService == nil {
		return errBrainNotConfigured
	}

	result, err := brainService.Reindex(cmd.Context())
	if err != nil {
		return explain(err)
	}

	cmd.Println(services.FormatReindex(result))
	return nil
}

func runGaps(cmd *cobra.Command, args []string) error {
	if err := warmIndex(cmd.Context()); err != nil {
		return err
	}

	scope := ""
	if len(args) == 1 {
		scope = strings.ToUpper(strings.TrimSpace(args[0]))
	}

	report, err := brainService.AnalyzeGaps(cmd.Context(), scope)
	if err != nil {
		return explain(err)
	}

	cmd.Println(services.FormatGapReport(report))
	cmd.Println()
	cmd.Println(services.FormatCompletion(report))

	if gapsAdvise && len(report.Gaps()) > 0 {
		advice, err := brainService.AdviseGaps(cmd.Context(), scope)
		if err != nil {
			return explain(err)
		}
		cmd.Println()
		cmd.Println("Advice:")
		cmd.Println(advice)
	}
	return nil
}

func runMarkers(cmd *cobra.Command, _ []string) error {
	if err := warmIndex(cmd.Context()); err != nil {
		return err
	}

	secs, err := brainService.ListMarkers(cmd.Context())
	if err != nil {
		return explain(err)
	}

	if filter := strings.ToUpper(strings.TrimSpace(markersDomain)); filter != "" {
		secs = filterDomain(secs, filter)
	}

	cmd.Println(services.FormatMarkers(secs))
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := warmIndex(cmd.Context()); err != nil {
		return err
	}

	stats, err := brainService.Stats(cmd.Context())
	if err != nil {
		return explain(err)
	}
	cmd.Println(services.FormatStats(stats))

	report, err := brainService.AnalyzeGaps(cmd.Context(), "")
	if err != nil {
		return explain(err)
	}
	cmd.Println()
	cmd.Println(services.FormatCompletion(report))
	return nil
}

func filterDomain(secs []domain.Section, dom string) []domain.Section {
	var out []domain.Section
	for _, s := range secs {
		if s.DomainOrDefault() == dom {
			out = append(out, s)
		}
	}
	return out
}
