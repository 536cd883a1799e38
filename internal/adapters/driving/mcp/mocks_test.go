package mcp

import (
	"context"
	"sort"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// mockGraph is a mock implementation of driving.GraphReader.
type mockGraph struct {
	nodes map[string][]domain.Node
	err   error
}

func (m *mockGraph) ListTypes(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var types []string
	for name := range m.nodes {
		types = append(types, name)
	}
	sort.Strings(types)
	return types, nil
}

func (m *mockGraph) ListNodes(_ context.Context, typeName string) ([]domain.Node, error) {
	if m.err != nil {
		return nil, m.err
	}
	nodes, ok := m.nodes[typeName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return nodes, nil
}

func (m *mockGraph) GetNode(ctx context.Context, typeName, id string) (*domain.Node, error) {
	nodes, err := m.ListNodes(ctx, typeName)
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockGraph) FindByPath(ctx context.Context, typeName, path string) (*domain.Node, error) {
	nodes, err := m.ListNodes(ctx, typeName)
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

// mockLoader is a mock implementation of driving.Loader.
type mockLoader struct {
	stats *driving.LoadStats
	err   error
}

func (m *mockLoader) Load(_ context.Context) error { return m.err }

func (m *mockLoader) Stats(_ context.Context) (*driving.LoadStats, error) {
	return m.stats, m.err
}

func (m *mockLoader) Close() error { return nil }

func newTestGraph() *mockGraph {
	return &mockGraph{nodes: map[string][]domain.Node{
		"FireUsers": {
			{ID: "alice", Path: "/users/alice", Fields: map[string]any{"id": "alice", "name": "Alice"}},
			{ID: "bob", Path: "/users/bob", Fields: map[string]any{"id": "bob", "name": "Bob"}},
		},
		"FireUsersPosts": {
			{
				ID:        "p1",
				Path:      "/users/alice/posts/p1",
				Fields:    map[string]any{"id": "p1", "title": "First"},
				ParentRef: domain.NodeReference{TypeName: "FireUsers", ID: "alice"},
			},
		},
	}}
}
