package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeNamer_CollectionType(t *testing.T) {
	namer := NewTypeNamer("")

	tests := []struct {
		path     string
		expected string
	}{
		{"users", "FireUsers"},
		{"users/alice/posts", "FireUsersPosts"},
		{"users/alice/posts/p1/comments", "FirePostsUsersComments"},
		{"éditions", "FireÉditions"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, namer.CollectionType(MustParsePath(tt.path)))
		})
	}
}

func TestTypeNamer_Determinism(t *testing.T) {
	namer := NewTypeNamer("Doc")

	// Same path shape, different document ids: identical type name.
	a := namer.CollectionType(MustParsePath("users/alice/posts"))
	b := namer.CollectionType(MustParsePath("users/bob/posts"))
	assert.Equal(t, a, b)
	assert.Equal(t, "DocUsersPosts", a)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a, namer.CollectionType(MustParsePath(fmt.Sprintf("users/u%d/posts", i))))
	}
}

func TestTypeNamer_ReferenceType(t *testing.T) {
	namer := NewTypeNamer("")

	// A reference to a document names the type of its collection,
	// matching what traversal of that collection produced.
	assert.Equal(t,
		namer.CollectionType(MustParsePath("users")),
		namer.ReferenceType(MustParsePath("users/alice")))
	assert.Equal(t,
		namer.CollectionType(MustParsePath("users/alice/posts")),
		namer.ReferenceType(MustParsePath("users/alice/posts/p1")))
	assert.Equal(t, "FireUsers", namer.ReferenceType(MustParsePath("users")))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", Capitalize(""))
	assert.Equal(t, "Posts", Capitalize("posts"))
	assert.Equal(t, "Posts", Capitalize("Posts"))
	assert.Equal(t, "Ñandu", Capitalize("ñandu"))
}
