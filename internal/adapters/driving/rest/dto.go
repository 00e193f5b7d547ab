package rest

import (
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	Domain   string `json:"domain,omitempty"`
}

// AddRequest is the body of POST /api/add.
type AddRequest struct {
	Content string `json:"content"`
}

// ConfirmRequest is the optional body of POST /api/confirm. A marker
// retargets the pending edit before it is committed.
type ConfirmRequest struct {
	Marker string `json:"marker,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Input string `json:"input"`
}

type resultResponse struct {
	Marker string  `json:"marker"`
	Seq    int     `json:"seq"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

type answerResponse struct {
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	Citations []string         `json:"citations"`
	Grounded  bool             `json:"grounded"`
	Results   []resultResponse `json:"results"`
}

func newAnswerResponse(a *domain.Answer) answerResponse {
	resp := answerResponse{
		Question:  a.Question,
		Answer:    a.Text,
		Citations: a.Citations,
		Grounded:  a.Grounded,
		Results:   make([]resultResponse, 0, len(a.Results)),
	}
	if resp.Citations == nil {
		resp.Citations = []string{}
	}
	for _, r := range a.Results {
		resp.Results = append(resp.Results, resultResponse{
			Marker: r.Marker,
			Seq:    r.Seq,
			Score:  r.Score,
			Text:   r.Text,
		})
	}
	return resp
}

type pendingResponse struct {
	SessionID     string    `json:"session_id"`
	Content       string    `json:"content"`
	TargetMarker  string    `json:"target_marker"`
	Confidence    float64   `json:"confidence"`
	LowConfidence bool      `json:"low_confidence"`
	Explicit      bool      `json:"explicit"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func newPendingResponse(p *domain.PendingEdit) pendingResponse {
	return pendingResponse{
		SessionID:     p.SessionID,
		Content:       p.Content,
		TargetMarker:  p.TargetMarker,
		Confidence:    p.Confidence,
		LowConfidence: p.LowConfidence,
		Explicit:      p.Explicit,
		CreatedAt:     p.CreatedAt,
		ExpiresAt:     p.ExpiresAt,
	}
}

type commitResponse struct {
	Marker  string `json:"marker"`
	Content string `json:"content"`
	Chunks  int    `json:"chunks"`
}

type reindexResponse struct {
	SectionsFound   int      `json:"sections_found"`
	SectionsIndexed int      `json:"sections_indexed"`
	ChunksIndexed   int      `json:"chunks_indexed"`
	ChunksReused    int      `json:"chunks_reused"`
	Warnings        []string `json:"warnings"`
}

func newReindexResponse(r *domain.ReindexResult) reindexResponse {
	resp := reindexResponse{
		SectionsFound:   r.SectionsFound,
		SectionsIndexed: r.SectionsIndexed,
		ChunksIndexed:   r.ChunksIndexed,
		ChunksReused:    r.ChunksReused,
		Warnings:        make([]string, 0, len(r.Warnings)),
	}
	for _, w := range r.Warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	return resp
}

type sectionGapResponse struct {
	Marker   string `json:"marker"`
	Domain   string `json:"domain"`
	Position int    `json:"position"`
	Status   string `json:"status"`
	Length   int    `json:"length"`
}

type domainSummaryResponse struct {
	Domain          string  `json:"domain"`
	Total           int     `json:"total"`
	Empty           int     `json:"empty"`
	Incomplete      int     `json:"incomplete"`
	OK              int     `json:"ok"`
	PercentComplete float64 `json:"percent_complete"`
}

func newDomainSummary(d domain.DomainSummary) domainSummaryResponse {
	return domainSummaryResponse{
		Domain:          d.Domain,
		Total:           d.Total,
		Empty:           d.Empty,
		Incomplete:      d.Incomplete,
		OK:              d.OK,
		PercentComplete: d.PercentComplete(),
	}
}

type gapReportResponse struct {
	Scope            string                  `json:"scope,omitempty"`
	MinContentLength int                     `json:"min_content_length"`
	Gaps             []sectionGapResponse    `json:"gaps"`
	Domains          []domainSummaryResponse `json:"domains"`
	Totals           domainSummaryResponse   `json:"totals"`
	Advice           string                  `json:"advice,omitempty"`
}

func newGapReportResponse(r *domain.GapReport) gapReportResponse {
	resp := gapReportResponse{
		Scope:            r.Scope,
		MinContentLength: r.MinContentLength,
		Gaps:             []sectionGapResponse{},
		Domains:          make([]domainSummaryResponse, 0, len(r.Domains)),
		Totals:           newDomainSummary(r.Totals),
	}
	for _, g := range r.Gaps() {
		resp.Gaps = append(resp.Gaps, sectionGapResponse{
			Marker:   g.Marker,
			Domain:   g.Domain,
			Position: g.Position,
			Status:   string(g.Status),
			Length:   g.Length,
		})
	}
	for _, d := range r.Domains {
		resp.Domains = append(resp.Domains, newDomainSummary(d))
	}
	return resp
}

type markerResponse struct {
	Marker   string `json:"marker"`
	Domain   string `json:"domain"`
	Kind     string `json:"kind"`
	Position int    `json:"position"`
	Empty    bool   `json:"empty"`
}

func newMarkersResponse(secs []domain.Section) []markerResponse {
	resp := make([]markerResponse, 0, len(secs))
	for _, s := range secs {
		resp = append(resp, markerResponse{
			Marker:   s.Marker,
			Domain:   s.DomainOrDefault(),
			Kind:     s.Kind,
			Position: s.Position,
			Empty:    s.IsEmpty(),
		})
	}
	return resp
}

type statsResponse struct {
	Sections      int    `json:"sections"`
	EmptySections int    `json:"empty_sections"`
	Chunks        int    `json:"chunks"`
	Model         string `json:"model"`
	Generation    uint64 `json:"generation"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Intent    string `json:"intent"`
	Text      string `json:"text"`
	Quit      bool   `json:"quit,omitempty"`
}
