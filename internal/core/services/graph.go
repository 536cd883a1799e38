package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// Ensure GraphService implements the interface.
var _ driving.GraphReader = (*GraphService)(nil)

// GraphService reads the materialised graph back out of the content store.
type GraphService struct {
	store driven.ContentStore
}

// NewGraphService creates a graph reader.
func NewGraphService(store driven.ContentStore) *GraphService {
	return &GraphService{store: store}
}

// ListTypes returns every type name, sorted.
func (s *GraphService) ListTypes(ctx context.Context) ([]string, error) {
	types, err := s.store.Types(ctx)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	sort.Strings(types)
	return types, nil
}

// ListNodes returns the nodes of a type, sorted by path then id.
func (s *GraphService) ListNodes(ctx context.Context, typeName string) ([]domain.Node, error) {
	handle, err := s.handle(ctx, typeName)
	if err != nil {
		return nil, err
	}
	nodes, err := handle.Nodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes %s: %w", typeName, err)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Path != nodes[j].Path {
			return nodes[i].Path < nodes[j].Path
		}
		return nodes[i].ID < nodes[j].ID
	})
	return nodes, nil
}

// GetNode returns one node by id.
func (s *GraphService) GetNode(ctx context.Context, typeName, id string) (*domain.Node, error) {
	handle, err := s.handle(ctx, typeName)
	if err != nil {
		return nil, err
	}
	return handle.GetNode(ctx, id)
}

// FindByPath returns the first node of the type with the given path.
func (s *GraphService) FindByPath(ctx context.Context, typeName, path string) (*domain.Node, error) {
	nodes, err := s.ListNodes(ctx, typeName)
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		if nodes[i].Path == path {
			return &nodes[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// handle looks a type up without creating it.
func (s *GraphService) handle(ctx context.Context, typeName string) (driven.TypeHandle, error) {
	types, err := s.store.Types(ctx)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	for _, name := range types {
		if name == typeName {
			return s.store.AddType(ctx, typeName)
		}
	}
	return nil, fmt.Errorf("type %s: %w", typeName, domain.ErrNotFound)
}
