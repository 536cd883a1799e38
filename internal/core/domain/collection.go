package domain

// SlugifyFunc converts an arbitrary string to a URL-safe slug.
// Supplied by the host; must be pure.
type SlugifyFunc func(string) string

// HashFunc derives a stable identifier from a string.
// Used for image deduplication keys; must be pure.
type HashFunc func(string) string

// PathFunc resolves a parent-dependent collection reference.
// parent is nil when invoked at the root of the traversal.
type PathFunc func(parent *DocumentRecord) (Path, error)

// IDSelector chooses a node id for a document.
// When both are empty the document's native id is used.
type IDSelector struct {
	// Field names a field whose value becomes the id.
	// A leading "$" marks a JSONPath expression over the raw fields.
	Field string

	// Func computes the id. Takes precedence over Field.
	Func func(record *DocumentRecord) string
}

// IsZero reports whether no selector is configured.
func (s IDSelector) IsZero() bool {
	return s.Field == "" && s.Func == nil
}

// SlugSelector chooses the node path for a document.
type SlugSelector struct {
	// Field names a field whose slugified value becomes the path.
	// A leading "$" marks a JSONPath expression over the raw fields.
	Field string

	// Func computes the path. Takes precedence over Field.
	Func func(record *DocumentRecord, slugify SlugifyFunc) string
}

// IsZero reports whether no selector is configured.
func (s SlugSelector) IsZero() bool {
	return s.Field == "" && s.Func == nil
}

// CollectionDefinition declares one slice of the source hierarchy to ingest.
// Definitions are immutable inputs supplied by the caller.
type CollectionDefinition struct {
	// Name overrides the derived type name when non-empty.
	Name string

	// Path is the static reference to a collection or a single document.
	Path Path

	// PathFunc resolves a reference from the parent document.
	// Takes precedence over Path.
	PathFunc PathFunc

	// ID selects the node id.
	ID IDSelector

	// Slug selects the node path.
	Slug SlugSelector

	// Skip fetches documents (so children can recurse) without
	// materialising nodes for this collection.
	Skip bool

	// Watch keeps the collection live-synchronised after the initial load.
	// Only honoured for top-level definitions.
	Watch bool

	// Children are resolved once per document of this collection,
	// with that document as parent.
	Children []CollectionDefinition
}

// ParentDependent reports whether the reference needs a parent document.
func (d *CollectionDefinition) ParentDependent() bool {
	return d.PathFunc != nil
}

// Label returns a human-readable identifier for logs.
func (d *CollectionDefinition) Label() string {
	switch {
	case d.Name != "":
		return d.Name
	case len(d.Path) > 0:
		return d.Path.String()
	case d.PathFunc != nil:
		return "<parent-dependent>"
	default:
		return "<unnamed>"
	}
}
