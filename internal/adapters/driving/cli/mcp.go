package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docbrain/docbrain-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the document to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run docbrain as an MCP server",
	Long: `Run docbrain as a Model Context Protocol server so an assistant can query
the document, stage additions and check coverage on your behalf.

The server speaks JSON-RPC over stdin/stdout unless --port is given, in which
case it serves the streamable HTTP transport on that port instead. Staged
additions still need an explicit confirm call before the document changes.

Tools:      query, add, confirm, reject, reindex, gaps, markers
Resources:  docbrain://markers, docbrain://sections/{marker}

Register it with a desktop client by pointing the client at the binary:

  {
    "mcpServers": {
      "docbrain": {"command": "/path/to/docbrain", "args": ["mcp", "serve"]}
    }
  }`,
	Example: `  docbrain mcp serve
  docbrain mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "serve over HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, _ := cmd.Flags().GetInt("port")

	// Stdout belongs to the protocol in stdio mode.
	if err := warmIndex(cmd.Context()); err != nil {
		cmd.PrintErrf("Warning: %v\n", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Brain: brainService})
	if err != nil {
		return err
	}

	if port <= 0 {
		return server.Run(cmd.Context())
	}

	addr := fmt.Sprintf(":%d", port)
	cmd.PrintErrf("MCP server listening on http://localhost%s/\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
