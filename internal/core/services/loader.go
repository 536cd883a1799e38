package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/logger"
	"github.com/custodia-labs/docgraph/internal/textutil"
)

// Ensure Loader implements the interface.
var _ driving.Loader = (*Loader)(nil)

// Collaborators are the host-supplied dependencies of a Loader.
type Collaborators struct {
	// Source is the document database. Required.
	Source driven.DocumentSource

	// Store receives the materialised nodes. Required.
	Store driven.ContentStore

	// Fetcher downloads images. Required unless images are ignored.
	Fetcher driven.ImageFetcher

	// Slugify defaults to textutil.Slugify.
	Slugify domain.SlugifyFunc

	// Hash defaults to textutil.HashURL.
	Hash domain.HashFunc
}

// Loader runs the initial traversal and owns the live sync watches.
type Loader struct {
	settings  domain.Settings
	defs      []domain.CollectionDefinition
	registry  *TypeRegistry
	queue     *DownloadQueue
	monitor   *SyncMonitor
	traverser *Traverser

	mu      sync.Mutex
	loading bool
}

// NewLoader validates the configuration and wires the engine.
// Configuration problems are returned as *domain.ConfigError.
func NewLoader(settings domain.Settings, defs []domain.CollectionDefinition, c Collaborators) (*Loader, error) {
	settings = settings.WithDefaults()

	if len(defs) == 0 {
		return nil, &domain.ConfigError{Err: domain.ErrNoCollections}
	}
	if c.Source == nil {
		return nil, &domain.ConfigError{Field: "source", Err: domain.ErrMissingCollaborator}
	}
	if c.Store == nil {
		return nil, &domain.ConfigError{Field: "store", Err: domain.ErrMissingCollaborator}
	}
	if c.Fetcher == nil && !settings.IgnoreImages {
		return nil, &domain.ConfigError{Field: "fetcher", Err: domain.ErrMissingCollaborator}
	}
	if c.Slugify == nil {
		c.Slugify = textutil.Slugify
	}
	if c.Hash == nil {
		c.Hash = textutil.HashURL
	}
	if settings.Debug {
		logger.SetVerbose(true)
	}

	namer := domain.NewTypeNamer(settings.TypePrefix)
	imageDir := settings.ImageDirectory
	if imageDir == "" {
		imageDir = domain.DefaultImageDirectory
	}
	paths := NewImagePaths(imageDir)
	normaliser := NewNormaliser(NormaliserOptions{
		Namer:             namer,
		References:        c.Store.CreateReference,
		Hash:              c.Hash,
		ImageDirectory:    imageDir,
		IgnoreImages:      settings.IgnoreImages,
		ResolveReferences: settings.ResolveReferences,
		ImagePaths:        paths,
	})
	builder := NewNodeBuilder(normaliser, c.Slugify, namer, c.Store.CreateReference)
	registry := NewTypeRegistry(c.Store)

	var queue *DownloadQueue
	if !settings.IgnoreImages {
		queue = NewDownloadQueue(c.Fetcher, DownloadOptions{
			Directory:     imageDir,
			Concurrency:   settings.Downloads.Concurrency,
			Timeout:       settings.Downloads.Timeout,
			RatePerSecond: settings.Downloads.RatePerSecond,
			Paths:         paths,
		})
	}

	var monitor *SyncMonitor
	if settings.LiveSync {
		monitor = NewSyncMonitor(c.Source, registry, builder, queue)
	}

	return &Loader{
		settings: settings,
		defs:     defs,
		registry: registry,
		queue:    queue,
		monitor:  monitor,
		traverser: NewTraverser(TraverserOptions{
			Source:        c.Source,
			Registry:      registry,
			Builder:       builder,
			Queue:         queue,
			Monitor:       monitor,
			Namer:         namer,
			StrictParents: settings.StrictParentRefs,
		}),
	}, nil
}

// Load traverses every definition, then waits for the image queue to drain.
// Watches attached during traversal stay active until Close.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		return domain.ErrLoadInProgress
	}
	l.loading = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.loading = false
		l.mu.Unlock()
	}()

	start := time.Now()
	logger.Section("Loading %d collections", len(l.defs))

	if err := l.traverser.Traverse(ctx, l.defs, nil); err != nil {
		return fmt.Errorf("traverse: %w", err)
	}

	if l.queue != nil {
		res, err := l.queue.Drain(ctx)
		if err != nil {
			return fmt.Errorf("drain images: %w", err)
		}
		logger.Info("images: %d downloaded, %d skipped, %d failed", res.Downloaded, res.Skipped, res.Failed)
	}

	logger.Info("load finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// Stats summarises the materialised graph.
func (l *Loader) Stats(ctx context.Context) (*driving.LoadStats, error) {
	counts, err := l.registry.Counts(ctx)
	if err != nil {
		return nil, err
	}
	stats := &driving.LoadStats{Nodes: counts}
	if l.queue != nil {
		qs := l.queue.Stats()
		stats.ImagesRegistered = qs.Registered
		stats.ImagesDownloaded = qs.Downloaded
		stats.ImagesSkipped = qs.Skipped
		stats.ImagesFailed = qs.Failed
	}
	if l.monitor != nil {
		stats.Watches = l.monitor.Watches()
	}
	return stats, nil
}

// Monitor returns the live sync monitor, or nil when live sync is disabled.
func (l *Loader) Monitor() *SyncMonitor {
	return l.monitor
}

// Close unsubscribes every live watch.
func (l *Loader) Close() error {
	if l.monitor == nil {
		return nil
	}
	return l.monitor.Close()
}
