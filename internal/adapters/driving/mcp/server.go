package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docbrain/docbrain-cli/internal/logger"
)

// Version is reported in the MCP initialize handshake.
const Version = "0.2.0"

// instructions tell the client how the tools fit together.
const instructions = `docbrain answers questions from a research document split into
sections by bracketed markers such as [D1:DEFINITION].

Use query to ask a question; answers cite the markers they rely on.
To file new content, call add. It stages the edit and returns the chosen
section and confidence. Nothing is written until confirm is called with the
same session; reject discards it. Use gaps to find empty or thin sections
and markers to list the document's sections.`

// Server exposes the brain as MCP tools and resources.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer registers the tools and resources. It fails when a port is missing.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "docbrain",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the MCP streamable HTTP transport. It can be mounted
// next to the REST API.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("MCP server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
