package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTypePrefix is the marker prepended to every derived type name.
const DefaultTypePrefix = "Fire"

// TypeNamer derives content type names from collection paths.
// The derivation is a pure function of the path segments, so two
// traversals of the same physical path always map to the same type.
type TypeNamer struct {
	Prefix string
}

// NewTypeNamer creates a namer. An empty prefix selects DefaultTypePrefix.
func NewTypeNamer(prefix string) TypeNamer {
	if prefix == "" {
		prefix = DefaultTypePrefix
	}
	return TypeNamer{Prefix: prefix}
}

// CollectionType names the type for a collection path such as users/alice/posts.
//
// The leaf collection segment is capitalised; the collection segments of the
// parent path (every even-indexed one) are capitalised and prepended in reverse
// traversal order; the prefix goes first. users/alice/posts/p1/comments becomes
// <Prefix>PostsUsersComments.
func (n TypeNamer) CollectionType(collection Path) string {
	if len(collection) == 0 {
		return n.Prefix
	}
	parents := collection.Parent()
	var b strings.Builder
	b.WriteString(n.Prefix)
	for i := len(parents) - 1; i >= 0; i-- {
		if i%2 == 0 {
			b.WriteString(Capitalize(parents[i]))
		}
	}
	b.WriteString(Capitalize(collection.Last()))
	return b.String()
}

// ReferenceType names the type a document or collection reference belongs to.
// Document paths are named after the collection containing them, so a
// reference to users/alice resolves to the same type the traversal of the
// users collection produced.
func (n TypeNamer) ReferenceType(ref Path) string {
	return n.CollectionType(ref.Collection())
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
