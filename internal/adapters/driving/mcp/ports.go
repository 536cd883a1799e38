package mcp

import (
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Graph reads types and nodes.
	Graph driving.GraphReader

	// Loader reports load statistics. Optional.
	Loader driving.Loader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Graph == nil {
		return ErrMissingGraphReader
	}
	return nil
}
