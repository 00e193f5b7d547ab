package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/metrics"
)

func serve(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	h := NewRouter(&mockBrainService{}, nil, nil).Setup()

	rec := serve(t, h, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestMount(t *testing.T) {
	rt := NewRouter(&mockBrainService{}, nil, nil)
	rt.Mount("/mcp", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	h := rt.Setup()

	rec := serve(t, h, http.MethodPost, "/mcp", "", nil)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestQuery(t *testing.T) {
	brain := &mockBrainService{answer: &domain.Answer{
		Question:  "what is X?",
		Text:      "X is a thing.",
		Citations: []string{"D1:DEFINITION"},
		Grounded:  true,
		Results: []domain.RetrievalResult{
			{Marker: "D1:DEFINITION", Seq: 0, Score: 0.91, Text: "X is a thing"},
		},
	}}
	h := NewRouter(brain, nil, nil).Setup()

	rec := serve(t, h, http.MethodPost, "/api/query", `{"question":"what is X?","top_k":3,"domain":"d1"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[answerResponse](t, rec)
	assert.Equal(t, "X is a thing.", resp.Answer)
	assert.Equal(t, []string{"D1:DEFINITION"}, resp.Citations)
	assert.True(t, resp.Grounded)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 0.91, resp.Results[0].Score, 1e-9)
	assert.Equal(t, "what is X?", brain.lastQuestion)
	assert.Equal(t, domain.QueryOptions{TopK: 3, Domain: "d1"}, brain.lastOpts)
}

func TestQuery_UngroundedHasEmptyCitations(t *testing.T) {
	brain := &mockBrainService{answer: &domain.Answer{Question: "q", Text: "I don't know."}}
	h := NewRouter(brain, nil, nil).Setup()

	rec := serve(t, h, http.MethodPost, "/api/query", `{"question":"q"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"citations":[]`)
	assert.Contains(t, rec.Body.String(), `"grounded":false`)
}

func TestQuery_BadBody(t *testing.T) {
	h := NewRouter(&mockBrainService{}, nil, nil).Setup()

	for _, body := range []string{"", "{not json", `{"question":"q","unknown":1}`} {
		rec := serve(t, h, http.MethodPost, "/api/query", body, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		resp := decodeBody[errorResponse](t, rec)
		assert.Equal(t, "invalid_input", resp.Error)
	}
}

func TestAdd_AssignsSession(t *testing.T) {
	brain := &mockBrainService{pending: &domain.PendingEdit{
		Content:      "new finding",
		TargetMarker: "D1:DEFINITION",
		Confidence:   0.8,
	}}
	h := NewRouter(brain, nil, nil).Setup()

	rec := serve(t, h, http.MethodPost, "/api/add", `{"content":"new finding"}`, nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	session := rec.Header().Get(SessionHeader)
	assert.NotEmpty(t, session)
	assert.Equal(t, session, brain.lastSession)
	assert.Equal(t, "new finding", brain.lastContent)
	resp := decodeBody[pendingResponse](t, rec)
	assert.Equal(t, "D1:DEFINITION", resp.TargetMarker)
}

func TestAdd_UsesSessionHeader(t *testing.T) {
	brain := &mockBrainService{pending: &domain.PendingEdit{SessionID: "s-1"}}
	h := NewRouter(brain, nil, nil).Setup()

	rec := serve(t, h, http.MethodPost, "/api/add", `{"content":"x"}`, map[string]string{SessionHeader: "s-1"})

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "s-1", rec.Header().Get(SessionHeader))
	assert.Equal(t, "s-1", brain.lastSession)
}

func TestConfirm(t *testing.T) {
	t.Run("without body", func(t *testing.T) {
		brain := &mockBrainService{commit: &domain.CommitResult{Marker: "D1:DEFINITION", Content: "x", Chunks: 2}}
		h := NewRouter(brain, nil, nil).Setup()

		rec := serve(t, h, http.MethodPost, "/api/confirm", "", map[string]string{SessionHeader: "s-1"})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"marker":"D1:DEFINITION","content":"x","chunks":2}`, rec.Body.String())
		assert.Empty(t, brain.lastMarker)
	})

	t.Run("retarget", func(t *testing.T) {
		brain := &mockBrainService{commit: &domain.CommitResult{Marker: "D2:METHOD"}}
		h := NewRouter(brain, nil, nil).Setup()

		rec := serve(t, h, http.MethodPost, "/api/confirm", `{"marker":"D2:METHOD"}`, map[string]string{SessionHeader: "s-1"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "D2:METHOD", brain.lastMarker)
	})
}

func TestReject(t *testing.T) {
	brain := &mockBrainService{pending: &domain.PendingEdit{SessionID: "s-1", Content: "x"}}
	h := NewRouter(brain, nil, nil).Setup()

	rec := serve(t, h, http.MethodPost, "/api/reject", "", map[string]string{SessionHeader: "s-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x", decodeBody[pendingResponse](t, rec).Content)
}

func TestPending(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	brain := &mockBrainService{pending: &domain.PendingEdit{SessionID: "s-1", ExpiresAt: expires}}
	h := NewRouter(brain, nil, nil).Setup()

	rec := serve(t, h, http.MethodGet, "/api/pending", "", map[string]string{SessionHeader: "s-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, expires.Equal(decodeBody[pendingResponse](t, rec).ExpiresAt))
}

func TestReindex(t *testing.T) {
	brain := &mockBrainService{reindex: &domain.ReindexResult{
		SectionsFound:   3,
		SectionsIndexed: 2,
		ChunksIndexed:   4,
		Warnings:        []domain.ParseWarning{{Marker: "D1:X", Line: 7, Message: "duplicate marker ignored"}},
	}}
	h := NewRouter(brain, nil, nil).Setup()

	rec := serve(t, h, http.MethodPost, "/api/reindex", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[reindexResponse](t, rec)
	assert.Equal(t, 2, resp.SectionsIndexed)
	assert.Equal(t, []string{"line 7: [D1:X] duplicate marker ignored"}, resp.Warnings)
}

func TestGaps(t *testing.T) {
	report := &domain.GapReport{
		Scope:            "D1",
		MinContentLength: 20,
		Sections: []domain.SectionGap{
			{Marker: "D1:A", Domain: "D1", Status: domain.GapEmpty},
			{Marker: "D1:B", Domain: "D1", Position: 1, Status: domain.GapOK, Length: 40},
		},
		Domains: []domain.DomainSummary{{Domain: "D1", Total: 2, Empty: 1, OK: 1}},
		Totals:  domain.DomainSummary{Total: 2, Empty: 1, OK: 1},
	}

	t.Run("report only lists gaps", func(t *testing.T) {
		brain := &mockBrainService{report: report}
		h := NewRouter(brain, nil, nil).Setup()

		rec := serve(t, h, http.MethodGet, "/api/gaps?domain=D1", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[gapReportResponse](t, rec)
		require.Len(t, resp.Gaps, 1)
		assert.Equal(t, "D1:A", resp.Gaps[0].Marker)
		assert.Equal(t, "EMPTY", resp.Gaps[0].Status)
		assert.InDelta(t, 50.0, resp.Domains[0].PercentComplete, 1e-9)
		assert.Empty(t, resp.Advice)
		assert.Equal(t, "D1", brain.lastScope)
	})

	t.Run("with advice", func(t *testing.T) {
		brain := &mockBrainService{report: report, advice: "Fill D1:A first."}
		h := NewRouter(brain, nil, nil).Setup()

		rec := serve(t, h, http.MethodGet, "/api/gaps?advise=true", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Fill D1:A first.", decodeBody[gapReportResponse](t, rec).Advice)
	})

	t.Run("bad advise flag", func(t *testing.T) {
		h := NewRouter(&mockBrainService{report: report}, nil, nil).Setup()

		rec := serve(t, h, http.MethodGet, "/api/gaps?advise=maybe", "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMarkers(t *testing.T) {
	brain := &mockBrainService{sections: []domain.Section{
		{Marker: "D1:DEFINITION", Domain: "D1", Kind: "DEFINITION", Body: "text"},
		{Marker: "SUMMARY", Kind: "SUMMARY", Position: 1},
	}}
	h := NewRouter(brain, nil, nil).Setup()

	rec := serve(t, h, http.MethodGet, "/api/markers", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[[]markerResponse](t, rec)
	require.Len(t, resp, 2)
	assert.False(t, resp[0].Empty)
	assert.Equal(t, domain.GeneralDomain, resp[1].Domain)
	assert.True(t, resp[1].Empty)
}

func TestStats(t *testing.T) {
	brain := &mockBrainService{stats: &domain.IndexStats{Sections: 4, Chunks: 9, Model: "nomic-embed-text", Generation: 2}}
	h := NewRouter(brain, nil, nil).Setup()

	rec := serve(t, h, http.MethodGet, "/api/stats", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"sections":4,"empty_sections":0,"chunks":9,"model":"nomic-embed-text","generation":2}`,
		rec.Body.String())
}

func TestChat(t *testing.T) {
	t.Run("dispatches to chat service", func(t *testing.T) {
		chat := &mockChatService{reply: &domain.Reply{Intent: domain.IntentHelp, Text: "help text"}}
		h := NewRouter(&mockBrainService{}, chat, nil).Setup()

		rec := serve(t, h, http.MethodPost, "/api/chat", `{"input":"/help"}`, map[string]string{SessionHeader: "s-9"})

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[chatResponse](t, rec)
		assert.Equal(t, "help", resp.Intent)
		assert.Equal(t, "help text", resp.Text)
		assert.Equal(t, "s-9", resp.SessionID)
		assert.Equal(t, "/help", chat.lastInput)
	})

	t.Run("not configured", func(t *testing.T) {
		h := NewRouter(&mockBrainService{}, nil, nil).Setup()

		rec := serve(t, h, http.MethodPost, "/api/chat", `{"input":"hi"}`, nil)

		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflicting edit", domain.ErrConflictingPendingEdit, http.StatusConflict, "conflicting_pending_edit"},
		{"empty index", domain.ErrEmptyIndex, http.StatusConflict, "empty_index"},
		{"unknown marker", fmt.Errorf("%w: [D9:X]", domain.ErrMarkerNotFound), http.StatusNotFound, "marker_not_found"},
		{"nothing pending", domain.ErrNoPendingEdit, http.StatusNotFound, "no_pending_edit"},
		{"parse error", domain.ErrNoMarkers, http.StatusUnprocessableEntity, "no_markers"},
		{"embedding down", domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, "embedding_unavailable"},
		{"llm down", domain.ErrGenerationUnavailable, http.StatusServiceUnavailable, "generation_unavailable"},
		{
			"generation timeout",
			fmt.Errorf("%w: %w", domain.ErrGenerationFailed, domain.ErrTimeout),
			http.StatusGatewayTimeout, "timeout",
		},
		{"generation failed", domain.ErrGenerationFailed, http.StatusBadGateway, "generation_failed"},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRouter(&mockBrainService{err: tt.err}, nil, nil).Setup()

			rec := serve(t, h, http.MethodPost, "/api/add", `{"content":"x"}`, nil)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeBody[errorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.err.Error(), resp.Message)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewCollector()
	brain := &mockBrainService{
		reindex: &domain.ReindexResult{ChunksIndexed: 12},
		answer:  &domain.Answer{Question: "q"},
	}
	h := NewRouter(brain, nil, m).Setup()

	serve(t, h, http.MethodPost, "/api/reindex", "", nil)
	serve(t, h, http.MethodPost, "/api/query", `{"question":"q"}`, nil)
	rec := serve(t, h, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `docbrain_http_requests_total{method="POST",route="/api/query",status="2xx"} 1`)
	assert.Contains(t, body, `docbrain_operations_total{operation="reindex",outcome="ok"} 1`)
	assert.Contains(t, body, "docbrain_index_chunks 12")
}

func TestMetricsEndpoint_WithoutCollector(t *testing.T) {
	h := NewRouter(&mockBrainService{}, nil, nil).Setup()

	rec := serve(t, h, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
