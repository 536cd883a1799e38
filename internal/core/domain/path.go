package domain

import (
	"fmt"
	"strings"
)

// Path locates a collection or a document in the source hierarchy.
// Segments alternate collection and document identifiers, so an odd
// number of segments addresses a collection and an even number a document.
type Path []string

// ParsePath splits a slash separated path. Leading and trailing slashes are ignored.
func ParsePath(s string) (Path, error) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(s, "/")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		}
	}
	return Path(segments), nil
}

// MustParsePath is like ParsePath but panics on error. Intended for tests and literals.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the slash separated form.
func (p Path) String() string {
	return strings.Join(p, "/")
}

// IsCollection reports whether the path addresses a collection.
func (p Path) IsCollection() bool {
	return len(p)%2 == 1
}

// IsDocument reports whether the path addresses a single document.
func (p Path) IsDocument() bool {
	return len(p) > 0 && len(p)%2 == 0
}

// Last returns the final segment, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its final segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[: len(p)-1 : len(p)-1]
}

// Collection returns the collection path containing the addressed entity.
// For a collection path that is the path itself; for a document path it is
// the path without the document id.
func (p Path) Collection() Path {
	if p.IsDocument() {
		return p.Parent()
	}
	return p
}

// Child appends segments, returning a new path.
func (p Path) Child(segments ...string) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Equal reports whether two paths have identical segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
