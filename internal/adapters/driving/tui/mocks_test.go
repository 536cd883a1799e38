package tui

import (
	"context"
	"errors"
	"sort"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

type mockGraph struct {
	nodes map[string][]domain.Node
	err   error
}

func newMockGraph() *mockGraph {
	return &mockGraph{nodes: map[string][]domain.Node{
		"FireUsers": {
			{ID: "alice", Path: "/alice", Fields: map[string]any{"id": "alice", "name": "Alice"}},
			{ID: "bob", Path: "/bob", Fields: map[string]any{"id": "bob", "name": "Bob"}},
		},
		"FireUsersPosts": {
			{
				ID:        "p1",
				Path:      "/hello",
				Fields:    map[string]any{"id": "p1", "title": "Hello"},
				ParentRef: domain.NodeReference{TypeName: "FireUsers", ID: "alice"},
			},
		},
	}}
}

func (m *mockGraph) ListTypes(context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	names := make([]string, 0, len(m.nodes))
	for name := range m.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
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

func (m *mockGraph) FindByPath(context.Context, string, string) (*domain.Node, error) {
	return nil, errors.New("not used")
}

type mockLoader struct {
	stats *driving.LoadStats
}

func (m *mockLoader) Load(context.Context) error { return nil }

func (m *mockLoader) Stats(context.Context) (*driving.LoadStats, error) { return m.stats, nil }

func (m *mockLoader) Close() error { return nil }
