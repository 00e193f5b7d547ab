package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/docbrain/docbrain-cli/internal/adapters/driving/mcp"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/rest"
	"github.com/docbrain/docbrain-cli/internal/logger"
	"github.com/docbrain/docbrain-cli/internal/metrics"
)

// ServeConfig holds the long-running collaborators of the serve command.
type ServeConfig struct {
	// Metrics records HTTP and operation metrics. Optional.
	Metrics *metrics.Collector

	// Janitor expires orphaned pending edits until ctx is cancelled. Optional.
	Janitor func(ctx context.Context)

	// Watch reindexes after external document edits until ctx is
	// cancelled. Optional.
	Watch func(ctx context.Context) error
}

// serveConfig holds the current serve configuration.
var serveConfig *ServeConfig

var (
	serveAddr  string
	serveMCP   bool
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves the JSON API under /api, a health check at /healthz and Prometheus
metrics at /metrics. Pending edits are scoped to the X-Session-ID header.

With --mcp the MCP streamable HTTP transport is mounted at /mcp.
With --watch the index is rebuilt whenever the document changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// SetServeConfig sets the configuration for the serve command.
func SetServeConfig(config *ServeConfig) {
	serveConfig = config
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP over HTTP at /mcp")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reindex when the document changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if brainService == nil || chatService == nil {
		return errBrainNotConfigured
	}
	if err := warmIndex(cmd.Context()); err != nil {
		// The API stays useful for /api/reindex once the cause is fixed.
		logger.Warn("Initial index build failed: %v", err)
		cmd.PrintErrf("Warning: %v\n", err)
	}

	cfg := serveConfig
	if cfg == nil {
		cfg = &ServeConfig{}
	}

	router := rest.NewRouter(brainService, chatService, cfg.Metrics)
	if serveMCP {
		server, err := mcp.NewServer(&mcp.Ports{Brain: brainService})
		if err != nil {
			return err
		}
		router.Mount("/mcp", server.HTTPHandler())
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	if cfg.Janitor != nil {
		g.Go(func() error {
			cfg.Janitor(ctx)
			return nil
		})
	}
	if serveWatch && cfg.Watch != nil {
		g.Go(func() error {
			if err := cfg.Watch(ctx); err != nil {
				logger.Warn("Document watch stopped: %v", err)
				cmd.PrintErrf("Warning: not watching the document: %v\n", err)
			}
			return nil
		})
	}

	cmd.Printf("Listening on %s\n", serveAddr)
	g.Go(func() error {
		return rest.ListenAndServe(ctx, serveAddr, router.Setup())
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
