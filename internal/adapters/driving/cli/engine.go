package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docgraph/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docgraph/internal/adapters/driven/httpfetch"
	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docgraph/internal/connectors/filesystem"
	"github.com/custodia-labs/docgraph/internal/connectors/firestore"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/core/services"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// engineOptions are command line overrides applied on top of the config file.
type engineOptions struct {
	liveSync     bool
	ignoreImages bool
}

// engine holds the wired services of one command invocation.
type engine struct {
	settings domain.Settings
	loader   driving.Loader
	graph    driving.GraphReader
	source   driven.DocumentSource
	store    driven.ContentStore
}

// persistent reports whether the store keeps nodes between runs.
func (e *engine) persistent() bool {
	return e.settings.Store.Kind != domain.StoreMemory
}

// Close stops live watches, then releases the source and the store.
func (e *engine) Close() error {
	var errs []error
	if e.loader != nil {
		errs = append(errs, e.loader.Close())
	}
	if e.source != nil {
		errs = append(errs, e.source.Close())
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	return errors.Join(errs...)
}

// newEngine builds the engine for a command. Tests replace it.
var newEngine = buildEngine

func buildEngine(ctx context.Context, opts engineOptions) (*engine, error) {
	cfg, err := file.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded from %s", cfg.Path())

	settings := cfg.Settings
	if opts.liveSync {
		settings.LiveSync = true
	}
	if opts.ignoreImages {
		settings.IgnoreImages = true
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	source, err := openSource(ctx, settings.Source)
	if err != nil {
		return nil, err
	}
	store, err := openStore(settings.Store)
	if err != nil {
		_ = source.Close()
		return nil, err
	}

	loader, err := services.NewLoader(settings, cfg.Collections, services.Collaborators{
		Source:  source,
		Store:   store,
		Fetcher: httpfetch.New(nil),
	})
	if err != nil {
		_ = source.Close()
		_ = store.Close()
		return nil, err
	}

	return &engine{
		settings: settings,
		loader:   loader,
		graph:    services.NewGraphService(store),
		source:   source,
		store:    store,
	}, nil
}

func openSource(ctx context.Context, s domain.SourceSettings) (driven.DocumentSource, error) {
	switch s.Kind {
	case domain.SourceFilesystem:
		src := filesystem.New(s.Root)
		if err := src.Validate(); err != nil {
			return nil, &domain.ConfigError{Field: "source.root", Err: err}
		}
		return src, nil
	case domain.SourceFirestore:
		return firestore.New(ctx, firestore.ConfigFromSettings(s))
	default:
		return nil, &domain.ConfigError{Field: "source.kind", Err: fmt.Errorf("%w: %q", domain.ErrInvalidInput, s.Kind)}
	}
}

func openStore(s domain.StoreSettings) (driven.ContentStore, error) {
	switch s.Kind {
	case domain.StoreMemory:
		return memory.NewContentStore(), nil
	case domain.StoreSQLite:
		store, err := sqlite.NewStore(s.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		logger.Debug("store at %s", store.Path())
		return store, nil
	default:
		return nil, &domain.ConfigError{Field: "store.kind", Err: fmt.Errorf("%w: %q", domain.ErrInvalidInput, s.Kind)}
	}
}
