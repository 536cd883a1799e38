// Package mcp provides an MCP (Model Context Protocol) server adapter for docgraph.
// It lets AI assistants browse the materialised node graph read-only.
package mcp

import "errors"

// ErrMissingGraphReader is returned when the graph reader is not provided.
var ErrMissingGraphReader = errors.New("mcp: graph reader is required")
