package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docgraph/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load collections and serve the graph over MCP",
	Long: `Loads every configured collection, then starts a Model Context Protocol
server exposing the node graph to AI assistants. With live sync enabled the
served graph follows changes in the source.

By default the server communicates over stdio. Use --port to serve the
streamable HTTP transport instead.

Examples:
  # Stdio mode
  docgraph serve

  # HTTP mode (MCP Inspector, remote access)
  docgraph serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	eng, err := newEngine(cmd.Context(), engineOptions{})
	if err != nil {
		return err
	}
	defer eng.Close()

	// Stdout carries the protocol in stdio mode, so no progress output.
	if err := eng.loader.Load(cmd.Context()); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Graph: eng.graph, Loader: eng.loader})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.Printf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	logger.Info("MCP server running on stdio")
	return server.Run(cmd.Context())
}
