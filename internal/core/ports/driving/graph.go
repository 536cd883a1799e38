package driving

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// GraphReader exposes the materialised graph to read-only consumers.
type GraphReader interface {
	// ListTypes returns every type name, sorted.
	ListTypes(ctx context.Context) ([]string, error)

	// ListNodes returns the nodes of a type, sorted by path.
	ListNodes(ctx context.Context, typeName string) ([]domain.Node, error)

	// GetNode returns one node by id.
	GetNode(ctx context.Context, typeName, id string) (*domain.Node, error)

	// FindByPath returns the node of a type with the given path.
	FindByPath(ctx context.Context, typeName, path string) (*domain.Node, error)
}
