package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/services"
)

var (
	queryDomain string
	queryTopK   int
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question from the document",
	Long: `Answers a question using only the sections retrieved from the research
document. The answer cites the section markers it relies on; when nothing
relevant is indexed the answer says so instead of guessing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryDomain, "domain", "d", "", "only retrieve from this domain, e.g. D1")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (0 = from settings)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

// queryOutput is the JSON shape of an answer.
type queryOutput struct {
	Question  string         `json:"question"`
	Answer    string         `json:"answer"`
	Citations []string       `json:"citations"`
	Grounded  bool           `json:"grounded"`
	Results   []resultOutput `json:"results"`
}

type resultOutput struct {
	Marker string  `json:"marker"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	if err := warmIndex(cmd.Context()); err != nil {
		return err
	}

	answer, err := brainService.Query(cmd.Context(), question, domain.QueryOptions{
		TopK:   queryTopK,
		Domain: queryDomain,
	})
	if err != nil {
		return explain(err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, answer)
	}

	cmd.Println(services.FormatAnswer(answer))
	return nil
}

func outputQueryJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := queryOutput{
		Question:  answer.Question,
		Answer:    answer.Text,
		Citations: answer.Citations,
		Grounded:  answer.Grounded,
		Results:   make([]resultOutput, len(answer.Results)),
	}
	if out.Citations == nil {
		out.Citations = []string{}
	}
	for i, r := range answer.Results {
		out.Results[i] = resultOutput{Marker: r.Marker, Score: r.Score, Text: r.Text}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
