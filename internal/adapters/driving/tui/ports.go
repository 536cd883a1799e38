// Package tui provides an interactive terminal browser for the node graph.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Graph reads types and nodes.
	Graph driving.GraphReader

	// Loader reports load statistics in the status bar. Optional.
	Loader driving.Loader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Graph == nil {
		return ErrMissingGraphReader
	}
	return nil
}
