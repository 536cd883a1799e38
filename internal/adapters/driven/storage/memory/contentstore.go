package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// Ensure ContentStore implements the interface.
var _ driven.ContentStore = (*ContentStore)(nil)

// ContentStore is an in-memory implementation of driven.ContentStore.
type ContentStore struct {
	mu    sync.RWMutex
	types map[string]*TypeStore
}

// NewContentStore creates a new in-memory content store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		types: make(map[string]*TypeStore),
	}
}

// AddType creates the named type, or returns the existing one.
func (s *ContentStore) AddType(_ context.Context, name string) (driven.TypeHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.types[name]; ok {
		return t, nil
	}
	t := &TypeStore{name: name, nodes: make(map[string]domain.Node)}
	s.types[name] = t
	return t, nil
}

// Types returns all type names, sorted.
func (s *ContentStore) Types(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateReference returns a domain.NodeReference.
func (s *ContentStore) CreateReference(typeName, id string) any {
	return domain.NodeReference{TypeName: typeName, ID: id}
}

// Close is a no-op for the memory store.
func (s *ContentStore) Close() error {
	return nil
}

// Ensure TypeStore implements the interface.
var _ driven.TypeHandle = (*TypeStore)(nil)

// TypeStore holds the nodes of one type.
type TypeStore struct {
	name  string
	mu    sync.RWMutex
	nodes map[string]domain.Node
}

// Name returns the type name.
func (t *TypeStore) Name() string {
	return t.name
}

// AddNode stores a new node.
func (t *TypeStore) AddNode(_ context.Context, node domain.Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.nodes[node.ID]; ok {
		return domain.ErrAlreadyExists
	}
	t.nodes[node.ID] = node
	return nil
}

// UpdateNode replaces an existing node.
func (t *TypeStore) UpdateNode(_ context.Context, node domain.Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.nodes[node.ID]; !ok {
		return domain.ErrNotFound
	}
	t.nodes[node.ID] = node
	return nil
}

// RemoveNode deletes a node.
func (t *TypeStore) RemoveNode(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.nodes, id)
	return nil
}

// GetNode retrieves a node by id.
func (t *TypeStore) GetNode(_ context.Context, id string) (*domain.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node, ok := t.nodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &node, nil
}

// NodeIDs returns all node ids, sorted.
func (t *TypeStore) NodeIDs(_ context.Context) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Nodes returns all nodes, sorted by id.
func (t *TypeStore) Nodes(_ context.Context) ([]domain.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	nodes := make([]domain.Node, 0, len(t.nodes))
	for _, node := range t.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, nil
}
