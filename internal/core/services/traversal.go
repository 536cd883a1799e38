package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// Traverser walks collection definitions depth first, materialising every
// fetched document and recursing into child definitions per document.
type Traverser struct {
	source        driven.DocumentSource
	registry      *TypeRegistry
	builder       *NodeBuilder
	queue         *DownloadQueue
	monitor       *SyncMonitor
	namer         domain.TypeNamer
	strictParents bool
}

// TraverserOptions configures a Traverser. Queue and Monitor are optional.
type TraverserOptions struct {
	Source        driven.DocumentSource
	Registry      *TypeRegistry
	Builder       *NodeBuilder
	Queue         *DownloadQueue
	Monitor       *SyncMonitor
	Namer         domain.TypeNamer
	StrictParents bool
}

// NewTraverser creates a traverser.
func NewTraverser(opts TraverserOptions) *Traverser {
	return &Traverser{
		source:        opts.Source,
		registry:      opts.Registry,
		builder:       opts.Builder,
		queue:         opts.Queue,
		monitor:       opts.Monitor,
		namer:         opts.Namer,
		strictParents: opts.StrictParents,
	}
}

// Traverse processes sibling definitions concurrently under parent (nil at
// the root) and returns once every branch has settled. A failing branch does
// not cancel its siblings; all branch errors are joined.
func (t *Traverser) Traverse(ctx context.Context, defs []domain.CollectionDefinition, parent *domain.DocumentRecord) error {
	var g errgroup.Group
	errs := make([]error, len(defs))
	for i := range defs {
		def := &defs[i]
		g.Go(func() error {
			errs[i] = t.traverseOne(ctx, def, parent)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (t *Traverser) traverseOne(ctx context.Context, def *domain.CollectionDefinition, parent *domain.DocumentRecord) error {
	ref, err := t.resolvePath(def, parent)
	if err != nil {
		if parent == nil {
			return fmt.Errorf("resolve %s: %w", def.Label(), err)
		}
		logger.Warn("resolve %s under %s: %v, skipping", def.Label(), parent.Ref, err)
		return nil
	}

	q, err := t.source.Resolve(ctx, ref)
	if err != nil {
		if parent == nil {
			return fmt.Errorf("resolve %s: %w", ref, err)
		}
		logger.Warn("resolve %s: %v, skipping", ref, err)
		return nil
	}

	snap, err := t.source.Fetch(ctx, q)
	if err != nil {
		return &domain.FetchError{Path: ref, Err: err}
	}

	records := snap.Records(parent)
	typeName := t.typeName(def, ref)
	logger.Debug("fetched %s: %d documents", ref, len(records))

	if !def.Skip {
		if err := t.materialise(ctx, typeName, def, records); err != nil {
			return err
		}
	}

	if len(def.Children) > 0 {
		var g errgroup.Group
		errs := make([]error, len(records))
		for i, record := range records {
			g.Go(func() error {
				errs[i] = t.Traverse(ctx, def.Children, record)
				return nil
			})
		}
		_ = g.Wait()
		if err := errors.Join(errs...); err != nil {
			return err
		}
	}

	if def.Watch {
		t.watch(ctx, typeName, def, q, parent)
	}
	return nil
}

func (t *Traverser) resolvePath(def *domain.CollectionDefinition, parent *domain.DocumentRecord) (domain.Path, error) {
	if !def.ParentDependent() {
		if len(def.Path) == 0 {
			return nil, domain.ErrInvalidPath
		}
		return def.Path, nil
	}
	if parent == nil {
		if t.strictParents {
			return nil, domain.ErrParentRequired
		}
		logger.Warn("collection %s depends on a parent document but has none", def.Label())
	}
	ref, err := def.PathFunc(parent)
	if err != nil {
		return nil, err
	}
	if len(ref) == 0 {
		return nil, domain.ErrInvalidPath
	}
	return ref, nil
}

func (t *Traverser) typeName(def *domain.CollectionDefinition, ref domain.Path) string {
	if def.Name != "" {
		return def.Name
	}
	return t.namer.CollectionType(ref.Collection())
}

func (t *Traverser) materialise(ctx context.Context, typeName string, def *domain.CollectionDefinition, records []*domain.DocumentRecord) error {
	if _, err := t.registry.Ensure(ctx, typeName); err != nil {
		return err
	}
	for _, record := range records {
		node, images := t.builder.Build(record, def.Slug, def.ID)
		if _, err := t.registry.Upsert(ctx, typeName, node); err != nil {
			return err
		}
		if t.queue == nil {
			continue
		}
		for _, img := range images {
			t.queue.Register(img)
		}
	}
	return nil
}

func (t *Traverser) watch(ctx context.Context, typeName string, def *domain.CollectionDefinition, q driven.Query, parent *domain.DocumentRecord) {
	switch {
	case parent != nil:
		logger.Warn("collection %s: watch is only supported on top-level collections", def.Label())
		return
	case def.Skip:
		logger.Warn("collection %s: skipped collections cannot be watched", def.Label())
		return
	case t.monitor == nil:
		logger.Debug("collection %s: live sync disabled", def.Label())
		return
	}

	req := WatchRequest{
		Query:    q,
		TypeName: typeName,
		Slug:     def.Slug,
		ID:       def.ID,
	}
	if _, err := t.monitor.Watch(ctx, req); err != nil {
		logger.Error("watch %s: %v", def.Label(), err)
	}
}
