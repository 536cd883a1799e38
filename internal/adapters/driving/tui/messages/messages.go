// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// TypeCount is a type name with its number of nodes.
type TypeCount struct {
	Name  string
	Count int
}

// TypesLoaded carries the type list back to the model.
type TypesLoaded struct {
	Types []TypeCount
	Err   error
}

// NodesLoaded carries the nodes of one type.
type NodesLoaded struct {
	Type  string
	Nodes []domain.Node
	Err   error
}

// NodeLoaded carries a single node.
type NodeLoaded struct {
	Type string
	Node *domain.Node
	Err  error
}

// StatsLoaded carries load statistics for the status bar.
type StatsLoaded struct {
	Stats *driving.LoadStats
	Err   error
}

// TypeSelected opens the node list of a type.
type TypeSelected struct {
	Type string
}

// NodeSelected opens a node.
type NodeSelected struct {
	Type string
	ID   string
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewTypes lists the node types.
	ViewTypes ViewType = iota
	// ViewNodes lists the nodes of one type.
	ViewNodes
	// ViewNode shows one node.
	ViewNode
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewTypes:
		return "types"
	case ViewNodes:
		return "nodes"
	case ViewNode:
		return "node"
	default:
		return "unknown"
	}
}
