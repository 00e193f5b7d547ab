package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// Operation names recorded in the operations metric.
const (
	opQuery   = "query"
	opAdd     = "add"
	opConfirm = "confirm"
	opReject  = "reject"
	opReindex = "reindex"
	opGaps    = "gaps"
	opChat    = "chat"
)

// sessionID returns the request's session, assigning a new one when the
// header is absent. The ID is echoed in the response header.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(SessionHeader, id)
	return id
}

// decode reads a JSON body into v. An empty body leaves v untouched when
// optional is set.
func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: request body: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// query handles POST /api/query.
func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decode(w, r, &req, false); err != nil {
		respondError(w, err)
		return
	}

	answer, err := rt.brain.Query(r.Context(), req.Question, domain.QueryOptions{
		TopK:   req.TopK,
		Domain: req.Domain,
	})
	rt.metrics.ObserveOperation(opQuery, err)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newAnswerResponse(answer))
}

// add handles POST /api/add. The content is staged, not written.
func (rt *Router) add(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)
	var req AddRequest
	if err := decode(w, r, &req, false); err != nil {
		respondError(w, err)
		return
	}

	pending, err := rt.brain.Add(r.Context(), session, req.Content)
	rt.metrics.ObserveOperation(opAdd, err)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, newPendingResponse(pending))
}

// confirm handles POST /api/confirm.
func (rt *Router) confirm(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)
	var req ConfirmRequest
	if err := decode(w, r, &req, true); err != nil {
		respondError(w, err)
		return
	}

	result, err := rt.brain.Confirm(r.Context(), session, req.Marker)
	rt.metrics.ObserveOperation(opConfirm, err)
	if err != nil {
		respondError(w, err)
		return
	}
	rt.recordIndexSize(r)
	respondJSON(w, http.StatusOK, commitResponse{
		Marker:  result.Marker,
		Content: result.Content,
		Chunks:  result.Chunks,
	})
}

// reject handles POST /api/reject.
func (rt *Router) reject(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)

	discarded, err := rt.brain.Reject(r.Context(), session)
	rt.metrics.ObserveOperation(opReject, err)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newPendingResponse(discarded))
}

// pending handles GET /api/pending.
func (rt *Router) pending(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)

	edit, err := rt.brain.Pending(r.Context(), session)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newPendingResponse(edit))
}

// reindex handles POST /api/reindex.
func (rt *Router) reindex(w http.ResponseWriter, r *http.Request) {
	result, err := rt.brain.Reindex(r.Context())
	rt.metrics.ObserveOperation(opReindex, err)
	if err != nil {
		respondError(w, err)
		return
	}
	rt.metrics.SetIndexChunks(result.ChunksIndexed)
	respondJSON(w, http.StatusOK, newReindexResponse(result))
}

// gaps handles GET /api/gaps?domain=D1&advise=true.
func (rt *Router) gaps(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("domain")
	advise := false
	if raw := r.URL.Query().Get("advise"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, fmt.Errorf("%w: advise must be a boolean", domain.ErrInvalidInput))
			return
		}
		advise = v
	}

	report, err := rt.brain.AnalyzeGaps(r.Context(), scope)
	rt.metrics.ObserveOperation(opGaps, err)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := newGapReportResponse(report)

	if advise {
		advice, err := rt.brain.AdviseGaps(r.Context(), scope)
		if err != nil {
			respondError(w, err)
			return
		}
		resp.Advice = advice
	}
	respondJSON(w, http.StatusOK, resp)
}

// markers handles GET /api/markers.
func (rt *Router) markers(w http.ResponseWriter, r *http.Request) {
	secs, err := rt.brain.ListMarkers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newMarkersResponse(secs))
}

// stats handles GET /api/stats.
func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	s, err := rt.brain.Stats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	rt.metrics.SetIndexChunks(s.Chunks)
	respondJSON(w, http.StatusOK, statsResponse{
		Sections:      s.Sections,
		EmptySections: s.EmptySections,
		Chunks:        s.Chunks,
		Model:         s.Model,
		Generation:    s.Generation,
	})
}

// chatMessage handles POST /api/chat with the same grammar as the TUI.
func (rt *Router) chatMessage(w http.ResponseWriter, r *http.Request) {
	if rt.chat == nil {
		respondError(w, fmt.Errorf("chat: %w", domain.ErrNotImplemented))
		return
	}
	session := sessionID(w, r)
	var req ChatRequest
	if err := decode(w, r, &req, false); err != nil {
		respondError(w, err)
		return
	}

	reply, err := rt.chat.Handle(r.Context(), session, req.Input)
	rt.metrics.ObserveOperation(opChat, err)
	if err != nil {
		respondError(w, err)
		return
	}
	if reply.Reindex != nil || reply.Commit != nil {
		rt.recordIndexSize(r)
	}
	respondJSON(w, http.StatusOK, chatResponse{
		SessionID: session,
		Intent:    string(reply.Intent),
		Text:      reply.Text,
		Quit:      reply.Quit,
	})
}

func (rt *Router) recordIndexSize(r *http.Request) {
	if s, err := rt.brain.Stats(r.Context()); err == nil {
		rt.metrics.SetIndexChunks(s.Chunks)
	}
}
