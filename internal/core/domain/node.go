package domain

// Node is the materialised, normalised unit held by a content store.
type Node struct {
	// ID is unique within the node's type.
	ID string

	// Path always starts with "/".
	Path string

	// Fields are the normalised document fields, including id, path and _parent.
	Fields map[string]any

	// ParentRef references the parent document's node, or nil at the root.
	ParentRef any
}

// NodeReference is the reference value produced by the bundled content stores.
type NodeReference struct {
	TypeName string `json:"typeName"`
	ID       string `json:"id"`
}

// ImageRegistration records one remote image scheduled for local mirroring.
type ImageRegistration struct {
	// ID is the hash of the full URL.
	ID string

	// URL is the remote https location.
	URL string

	// Filename is the final URL path segment, without query or fragment.
	Filename string

	// LocalPath is where the image will be written.
	LocalPath string
}

// Reserved field names added to every node.
const (
	FieldID     = "id"
	FieldPath   = "path"
	FieldParent = "_parent"
	FieldSlug   = "slug"
)
