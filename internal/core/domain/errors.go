package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPath indicates a collection or document path is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// Configuration Errors.

	// ErrNoCollections indicates no collection definitions were supplied.
	ErrNoCollections = errors.New("at least one collection is required")

	// ErrMissingCollaborator indicates a required collaborator (source, store) is nil.
	ErrMissingCollaborator = errors.New("missing collaborator")

	// Traversal Errors.

	// ErrLoadInProgress indicates a load is already running.
	ErrLoadInProgress = errors.New("load in progress")

	// ErrParentRequired indicates a parent-dependent reference was resolved
	// without a parent document while strict parent references are enabled.
	ErrParentRequired = errors.New("parent document required")

	// ErrUnsupportedField indicates a field value has no defined conversion.
	ErrUnsupportedField = errors.New("unsupported field")

	// Source Errors.

	// ErrSourceClosed indicates the document source has been closed.
	ErrSourceClosed = errors.New("source closed")

	// ErrWatchClosed indicates the watch has already been unsubscribed.
	ErrWatchClosed = errors.New("watch closed")

	// ErrRateLimited indicates the source rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Download Errors.

	// ErrDownloadFailed indicates an image transfer failed or timed out.
	ErrDownloadFailed = errors.New("download failed")
)

// ConfigError is a fatal configuration problem surfaced before any work starts.
type ConfigError struct {
	// Field names the offending setting or collaborator.
	Field string

	// Err is the underlying sentinel (ErrNoCollections, ErrMissingCollaborator, ...).
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FetchError is a failure to execute a query against the document source.
// It aborts the subtree rooted at Path.
type FetchError struct {
	Path Path
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// FetchErrorPaths returns the paths of every FetchError joined into err.
func FetchErrorPaths(err error) []string {
	var paths []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if fe, ok := e.(*FetchError); ok {
			paths = append(paths, fe.Path.String())
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return paths
}
