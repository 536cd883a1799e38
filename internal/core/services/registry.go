package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// TypeRegistry tracks the types created in the content store and
// serialises node mutations per type. Traversal and live sync share it.
type TypeRegistry struct {
	store driven.ContentStore

	mu    sync.Mutex
	types map[string]*registeredType
}

type registeredType struct {
	mu     sync.Mutex
	handle driven.TypeHandle
}

// NewTypeRegistry creates a registry over a content store.
func NewTypeRegistry(store driven.ContentStore) *TypeRegistry {
	return &TypeRegistry{
		store: store,
		types: make(map[string]*registeredType),
	}
}

// Ensure returns the named type, creating it in the store on first use.
func (r *TypeRegistry) Ensure(ctx context.Context, name string) (driven.TypeHandle, error) {
	t, err := r.ensure(ctx, name)
	if err != nil {
		return nil, err
	}
	return t.handle, nil
}

func (r *TypeRegistry) ensure(ctx context.Context, name string) (*registeredType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.types[name]; ok {
		return t, nil
	}
	handle, err := r.store.AddType(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("add type %s: %w", name, err)
	}
	t := &registeredType{handle: handle}
	r.types[name] = t
	return t, nil
}

// Upsert adds the node, or replaces the existing node with the same id.
// It reports whether the node was newly created.
func (r *TypeRegistry) Upsert(ctx context.Context, typeName string, node domain.Node) (bool, error) {
	t, err := r.ensure(ctx, typeName)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_, err = t.handle.GetNode(ctx, node.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := t.handle.AddNode(ctx, node); err != nil {
			return false, fmt.Errorf("add node %s/%s: %w", typeName, node.ID, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("get node %s/%s: %w", typeName, node.ID, err)
	}

	if err := t.handle.UpdateNode(ctx, node); err != nil {
		return false, fmt.Errorf("update node %s/%s: %w", typeName, node.ID, err)
	}
	return false, nil
}

// Remove deletes a node. Removing from an unknown type is a no-op.
func (r *TypeRegistry) Remove(ctx context.Context, typeName, id string) error {
	t, ok := r.lookupType(typeName)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.handle.RemoveNode(ctx, id); err != nil {
		return fmt.Errorf("remove node %s/%s: %w", typeName, id, err)
	}
	return nil
}

// Lookup returns a node by id, or domain.ErrNotFound.
func (r *TypeRegistry) Lookup(ctx context.Context, typeName, id string) (*domain.Node, error) {
	t, ok := r.lookupType(typeName)
	if !ok {
		return nil, domain.ErrNotFound
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.handle.GetNode(ctx, id)
}

// Reconcile removes every node of the type whose id is not in present.
// The removed ids are returned sorted.
func (r *TypeRegistry) Reconcile(ctx context.Context, typeName string, present map[string]struct{}) ([]string, error) {
	t, err := r.ensure(ctx, typeName)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ids, err := t.handle.NodeIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes %s: %w", typeName, err)
	}

	var removed []string
	for _, id := range ids {
		if _, ok := present[id]; ok {
			continue
		}
		if err := t.handle.RemoveNode(ctx, id); err != nil {
			return removed, fmt.Errorf("remove node %s/%s: %w", typeName, id, err)
		}
		removed = append(removed, id)
	}
	sort.Strings(removed)
	return removed, nil
}

// Names returns the registered type names, sorted.
func (r *TypeRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counts returns the number of nodes per registered type.
func (r *TypeRegistry) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, name := range r.Names() {
		t, _ := r.lookupType(name)
		t.mu.Lock()
		ids, err := t.handle.NodeIDs(ctx)
		t.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("list nodes %s: %w", name, err)
		}
		counts[name] = len(ids)
	}
	return counts, nil
}

func (r *TypeRegistry) lookupType(name string) (*registeredType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.types[name]
	return t, ok
}
