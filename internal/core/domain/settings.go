package domain

import (
	"fmt"
	"time"
)

// Defaults applied by WithDefaults.
const (
	DefaultImageDirectory      = "fg_images"
	DefaultDownloadConcurrency = 4
	DefaultDownloadTimeout     = 5 * time.Second
	DefaultPollInterval        = 30 * time.Second
)

// StoreKind selects the content store backend.
type StoreKind string

const (
	// StoreMemory keeps nodes in process memory.
	StoreMemory StoreKind = "memory"
	// StoreSQLite persists nodes to a SQLite database.
	StoreSQLite StoreKind = "sqlite"
)

// SourceKind selects the document source connector.
type SourceKind string

const (
	// SourceFilesystem reads JSON documents from a directory tree.
	SourceFilesystem SourceKind = "filesystem"
	// SourceFirestore reads documents from the Firestore REST API.
	SourceFirestore SourceKind = "firestore"
)

// Settings configures the materialisation engine.
type Settings struct {
	// TypePrefix is prepended to every derived type name.
	TypePrefix string

	// ImageDirectory receives mirrored images.
	ImageDirectory string

	// IgnoreImages disables image extraction; image URLs stay plain strings.
	IgnoreImages bool

	// ResolveReferences converts document references into store references.
	// When false, reference fields become null.
	ResolveReferences bool

	// LiveSync attaches watches to collections flagged with Watch.
	LiveSync bool

	// StrictParentRefs turns a parent-dependent reference resolved without
	// a parent into ErrParentRequired instead of a warning.
	StrictParentRefs bool

	// Debug enables verbose logging.
	Debug bool

	// Downloads configures the image download queue.
	Downloads DownloadSettings

	// Store configures the content store backend.
	Store StoreSettings

	// Source configures the document source connector.
	Source SourceSettings
}

// DownloadSettings configures the image download queue.
type DownloadSettings struct {
	// Concurrency is the number of simultaneous transfers.
	Concurrency int

	// Timeout caps every transfer.
	Timeout time.Duration

	// RatePerSecond throttles transfer starts. Zero disables throttling.
	RatePerSecond float64
}

// StoreSettings configures the content store.
type StoreSettings struct {
	Kind    StoreKind
	DataDir string
}

// SourceSettings configures the document source.
type SourceSettings struct {
	Kind SourceKind

	// Root is the directory of a filesystem source.
	Root string

	// ProjectID and Database address a Firestore database.
	ProjectID string
	Database  string

	// CredentialsFile is a service account key for Firestore.
	CredentialsFile string

	// APIKey authenticates Firestore requests without a service account.
	APIKey string

	// PollInterval is the refresh interval of Firestore subscriptions.
	PollInterval time.Duration

	// Endpoint overrides the Firestore REST endpoint (emulators, tests).
	Endpoint string
}

// DefaultSettings returns settings with all defaults applied.
func DefaultSettings() Settings {
	return Settings{
		TypePrefix:        DefaultTypePrefix,
		ImageDirectory:    DefaultImageDirectory,
		ResolveReferences: true,
		Downloads: DownloadSettings{
			Concurrency: DefaultDownloadConcurrency,
			Timeout:     DefaultDownloadTimeout,
		},
		Store: StoreSettings{Kind: StoreMemory},
		Source: SourceSettings{
			Kind:         SourceFilesystem,
			Database:     "(default)",
			PollInterval: DefaultPollInterval,
		},
	}
}

// WithDefaults fills zero-valued fields from DefaultSettings.
// Boolean switches are left untouched.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.TypePrefix == "" {
		s.TypePrefix = d.TypePrefix
	}
	if s.ImageDirectory == "" {
		s.ImageDirectory = d.ImageDirectory
	}
	if s.Downloads.Concurrency <= 0 {
		s.Downloads.Concurrency = d.Downloads.Concurrency
	}
	if s.Downloads.Timeout <= 0 {
		s.Downloads.Timeout = d.Downloads.Timeout
	}
	if s.Store.Kind == "" {
		s.Store.Kind = d.Store.Kind
	}
	if s.Source.Kind == "" {
		s.Source.Kind = d.Source.Kind
	}
	if s.Source.Database == "" {
		s.Source.Database = d.Source.Database
	}
	if s.Source.PollInterval <= 0 {
		s.Source.PollInterval = d.Source.PollInterval
	}
	return s
}

// Validate checks settings for values that cannot be defaulted.
func (s Settings) Validate() error {
	switch s.Store.Kind {
	case StoreMemory, StoreSQLite:
	default:
		return &ConfigError{Field: "store.kind", Err: fmt.Errorf("%w: %q", ErrInvalidInput, s.Store.Kind)}
	}
	switch s.Source.Kind {
	case SourceFilesystem:
		if s.Source.Root == "" {
			return &ConfigError{Field: "source.root", Err: ErrMissingCollaborator}
		}
	case SourceFirestore:
		if s.Source.ProjectID == "" {
			return &ConfigError{Field: "source.project_id", Err: ErrMissingCollaborator}
		}
		if s.Source.CredentialsFile == "" && s.Source.APIKey == "" && s.Source.Endpoint == "" {
			return &ConfigError{Field: "source.credentials_file", Err: ErrMissingCollaborator}
		}
	default:
		return &ConfigError{Field: "source.kind", Err: fmt.Errorf("%w: %q", ErrInvalidInput, s.Source.Kind)}
	}
	if s.Downloads.RatePerSecond < 0 {
		return &ConfigError{Field: "downloads.rate", Err: ErrInvalidInput}
	}
	return nil
}
