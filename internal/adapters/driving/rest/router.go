// Package rest exposes the brain over a JSON HTTP API.
//
// Gate operations are scoped to the X-Session-ID request header. A request
// without one gets a fresh session ID, returned in the same header.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/docbrain/docbrain-cli/internal/core/ports/driving"
	"github.com/docbrain/docbrain-cli/internal/metrics"
)

// SessionHeader carries the session ID for gate operations.
const SessionHeader = "X-Session-ID"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Router wires the HTTP handlers to the core services.
type Router struct {
	brain   driving.BrainService
	chat    driving.ChatService
	metrics *metrics.Collector
	mounts  map[string]http.Handler
}

// NewRouter creates a router. chat and m may be nil; the chat endpoint then
// answers 501 and no metrics are recorded.
func NewRouter(brain driving.BrainService, chat driving.ChatService, m *metrics.Collector) *Router {
	return &Router{
		brain:   brain,
		chat:    chat,
		metrics: m,
	}
}

// Mount serves h under pattern next to the API, e.g. the MCP transport at /mcp.
func (rt *Router) Mount(pattern string, h http.Handler) {
	if rt.mounts == nil {
		rt.mounts = make(map[string]http.Handler)
	}
	rt.mounts[pattern] = h
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(rt.observe)

	router.Get("/healthz", rt.healthCheck)
	router.Handle("/metrics", rt.metrics.Handler())

	for pattern, h := range rt.mounts {
		router.Mount(pattern, h)
	}

	router.Route("/api", func(r chi.Router) {
		r.Post("/query", rt.query)
		r.Post("/add", rt.add)
		r.Post("/confirm", rt.confirm)
		r.Post("/reject", rt.reject)
		r.Get("/pending", rt.pending)
		r.Post("/reindex", rt.reindex)
		r.Get("/gaps", rt.gaps)
		r.Get("/markers", rt.markers)
		r.Get("/stats", rt.stats)
		r.Post("/chat", rt.chatMessage)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// observe records request counts and latency by route pattern.
func (rt *Router) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		rt.metrics.ObserveHTTP(r.Method, route, status, time.Since(start))
	})
}
