package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// defaultSession scopes pending edits when the client names no session.
// Stdio clients talk to a single assistant, so one shared session suffices.
const defaultSession = "mcp"

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the research document"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default from settings)"`
	Domain   string `json:"domain,omitempty" jsonschema:"limit retrieval to one domain, e.g. D1"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Answer    string         `json:"answer"`
	Citations []string       `json:"citations"`
	Grounded  bool           `json:"grounded"`
	Results   []ResultOutput `json:"results"`
}

// ResultOutput is a retrieved chunk backing an answer.
type ResultOutput struct {
	Marker string  `json:"marker"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// AddInput is the input schema for the add tool.
type AddInput struct {
	Content string `json:"content" jsonschema:"the finding to store; may name its section inline as 'in [MARKER]'"`
	Session string `json:"session,omitempty" jsonschema:"session that owns the pending edit (default mcp)"`
}

// ConfirmInput is the input schema for the confirm tool.
type ConfirmInput struct {
	Marker  string `json:"marker,omitempty" jsonschema:"commit into this section instead of the suggested one"`
	Session string `json:"session,omitempty" jsonschema:"session that owns the pending edit (default mcp)"`
}

// RejectInput is the input schema for the reject tool.
type RejectInput struct {
	Session string `json:"session,omitempty" jsonschema:"session that owns the pending edit (default mcp)"`
}

// PendingOutput describes a staged edit.
type PendingOutput struct {
	Content       string  `json:"content"`
	TargetMarker  string  `json:"target_marker"`
	Confidence    float64 `json:"confidence"`
	LowConfidence bool    `json:"low_confidence"`
	Explicit      bool    `json:"explicit"`
	Message       string  `json:"message"`
}

// CommitOutput describes a committed edit.
type CommitOutput struct {
	Marker string `json:"marker"`
	Chunks int    `json:"chunks"`
}

// ReindexInput is the input schema for the reindex tool.
type ReindexInput struct{}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	SectionsIndexed int      `json:"sections_indexed"`
	ChunksIndexed   int      `json:"chunks_indexed"`
	ChunksReused    int      `json:"chunks_reused"`
	Warnings        []string `json:"warnings,omitempty"`
}

// GapsInput is the input schema for the gaps tool.
type GapsInput struct {
	Domain string `json:"domain,omitempty" jsonschema:"limit the analysis to one domain, e.g. D1"`
	Advise bool   `json:"advise,omitempty" jsonschema:"also ask the LLM which gaps to fill first"`
}

// GapsOutput is the output schema for the gaps tool.
type GapsOutput struct {
	Gaps            []GapOutput `json:"gaps"`
	Total           int         `json:"total"`
	PercentComplete float64     `json:"percent_complete"`
	Advice          string      `json:"advice,omitempty"`
}

// GapOutput is one EMPTY or INCOMPLETE section.
type GapOutput struct {
	Marker string `json:"marker"`
	Status string `json:"status"`
	Length int    `json:"length"`
}

// MarkersInput is the input schema for the markers tool.
type MarkersInput struct {
	Domain string `json:"domain,omitempty" jsonschema:"only list markers of this domain"`
}

// MarkersOutput is the output schema for the markers tool.
type MarkersOutput struct {
	Markers []MarkerOutput `json:"markers"`
	Count   int            `json:"count"`
}

// MarkerOutput is one section marker.
type MarkerOutput struct {
	Marker string `json:"marker"`
	Domain string `json:"domain"`
	Empty  bool   `json:"empty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Answer a question using only the indexed research document, with cited section markers",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "add",
		Description: "Route a new finding to the best matching section and stage it. " +
			"Nothing is written until the user approves and confirm is called.",
	}, s.handleAdd)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "confirm",
		Description: "Append the staged finding to the document, optionally into a different section",
	}, s.handleConfirm)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reject",
		Description: "Discard the staged finding without touching the document",
	}, s.handleReject)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reindex",
		Description: "Re-read the document and rebuild the search index",
	}, s.handleReindex)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "gaps",
		Description: "List EMPTY and INCOMPLETE sections, optionally for one domain",
	}, s.handleGaps)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "markers",
		Description: "List the section markers of the document in order",
	}, s.handleMarkers)
}

func session(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return defaultSession
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	answer, err := s.ports.Brain.Query(ctx, input.Question, domain.QueryOptions{
		TopK:   input.TopK,
		Domain: input.Domain,
	})
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Answer:    answer.Text,
		Citations: answer.Citations,
		Grounded:  answer.Grounded,
		Results:   make([]ResultOutput, len(answer.Results)),
	}
	if output.Citations == nil {
		output.Citations = []string{}
	}
	for i, r := range answer.Results {
		output.Results[i] = ResultOutput{Marker: r.Marker, Score: r.Score, Text: r.Text}
	}

	return nil, output, nil
}

// handleAdd handles the add tool invocation.
func (s *Server) handleAdd(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddInput,
) (*mcp.CallToolResult, PendingOutput, error) {
	edit, err := s.ports.Brain.Add(ctx, session(input.Session), input.Content)
	if err != nil {
		return nil, PendingOutput{}, err
	}

	output := newPendingOutput(edit)
	output.Message = "Staged for [" + edit.TargetMarker + "]. Ask the user, then call confirm or reject."
	if edit.LowConfidence {
		output.Message = "Low confidence match [" + edit.TargetMarker +
			"]. Ask the user for the right section, then call confirm with that marker or reject."
	}
	return nil, output, nil
}

// handleConfirm handles the confirm tool invocation.
func (s *Server) handleConfirm(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConfirmInput,
) (*mcp.CallToolResult, CommitOutput, error) {
	result, err := s.ports.Brain.Confirm(ctx, session(input.Session), input.Marker)
	if err != nil {
		return nil, CommitOutput{}, err
	}
	return nil, CommitOutput{Marker: result.Marker, Chunks: result.Chunks}, nil
}

// handleReject handles the reject tool invocation.
func (s *Server) handleReject(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RejectInput,
) (*mcp.CallToolResult, PendingOutput, error) {
	edit, err := s.ports.Brain.Reject(ctx, session(input.Session))
	if err != nil {
		return nil, PendingOutput{}, err
	}

	output := newPendingOutput(edit)
	output.Message = "Discarded. The document was not changed."
	return nil, output, nil
}

// handleReindex handles the reindex tool invocation.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	result, err := s.ports.Brain.Reindex(ctx)
	if err != nil {
		return nil, ReindexOutput{}, err
	}

	output := ReindexOutput{
		SectionsIndexed: result.SectionsIndexed,
		ChunksIndexed:   result.ChunksIndexed,
		ChunksReused:    result.ChunksReused,
	}
	for _, w := range result.Warnings {
		output.Warnings = append(output.Warnings, w.String())
	}
	return nil, output, nil
}

// handleGaps handles the gaps tool invocation.
func (s *Server) handleGaps(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GapsInput,
) (*mcp.CallToolResult, GapsOutput, error) {
	report, err := s.ports.Brain.AnalyzeGaps(ctx, input.Domain)
	if err != nil {
		return nil, GapsOutput{}, err
	}

	gaps := report.Gaps()
	output := GapsOutput{
		Gaps:            make([]GapOutput, len(gaps)),
		Total:           report.Totals.Total,
		PercentComplete: report.Totals.PercentComplete(),
	}
	for i, g := range gaps {
		output.Gaps[i] = GapOutput{Marker: g.Marker, Status: string(g.Status), Length: g.Length}
	}

	if input.Advise {
		advice, err := s.ports.Brain.AdviseGaps(ctx, input.Domain)
		if err != nil {
			return nil, GapsOutput{}, err
		}
		output.Advice = advice
	}
	return nil, output, nil
}

// handleMarkers handles the markers tool invocation.
func (s *Server) handleMarkers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MarkersInput,
) (*mcp.CallToolResult, MarkersOutput, error) {
	secs, err := s.ports.Brain.ListMarkers(ctx)
	if err != nil {
		return nil, MarkersOutput{}, err
	}

	filter := strings.ToUpper(strings.TrimSpace(input.Domain))
	output := MarkersOutput{Markers: []MarkerOutput{}}
	for _, sec := range secs {
		if filter != "" && sec.DomainOrDefault() != filter {
			continue
		}
		output.Markers = append(output.Markers, MarkerOutput{
			Marker: sec.Marker,
			Domain: sec.DomainOrDefault(),
			Empty:  sec.IsEmpty(),
		})
	}
	output.Count = len(output.Markers)
	return nil, output, nil
}

func newPendingOutput(edit *domain.PendingEdit) PendingOutput {
	return PendingOutput{
		Content:       edit.Content,
		TargetMarker:  edit.TargetMarker,
		Confidence:    edit.Confidence,
		LowConfidence: edit.LowConfidence,
		Explicit:      edit.Explicit,
	}
}
