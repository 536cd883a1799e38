package driven

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// ContentStore is the downstream store receiving materialised nodes.
// Backed by memory or SQLite.
type ContentStore interface {
	// AddType creates the named type, or returns the existing one.
	AddType(ctx context.Context, name string) (TypeHandle, error)

	// Types returns the names of all types.
	Types(ctx context.Context) ([]string, error)

	// CreateReference builds the opaque value stored in fields that
	// point at another node.
	CreateReference(typeName, id string) any

	// Close releases resources.
	Close() error
}

// TypeHandle manipulates the nodes of one type.
// Implementations must make every single-node operation atomic.
type TypeHandle interface {
	// Name returns the type name.
	Name() string

	// AddNode stores a new node. Returns domain.ErrAlreadyExists if the id is taken.
	AddNode(ctx context.Context, node domain.Node) error

	// UpdateNode replaces an existing node. Returns domain.ErrNotFound if absent.
	UpdateNode(ctx context.Context, node domain.Node) error

	// RemoveNode deletes a node. Removing a missing node is not an error.
	RemoveNode(ctx context.Context, id string) error

	// GetNode returns a node by id, or domain.ErrNotFound.
	GetNode(ctx context.Context, id string) (*domain.Node, error)

	// NodeIDs returns the ids of every node.
	NodeIDs(ctx context.Context) ([]string, error)

	// Nodes returns every node.
	Nodes(ctx context.Context) ([]domain.Node, error)
}
