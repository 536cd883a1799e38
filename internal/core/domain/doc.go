// Package domain defines the core entities of docgraph.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Path: a slash separated collection or document location
//   - Value: a tagged field value emitted by a document source
//   - CollectionDefinition: a declared slice of the source hierarchy
//   - DocumentRecord: one fetched document plus its parent linkage
//   - Node: the normalised, addressable unit held by a content store
//   - ImageRegistration: a remote image scheduled for local mirroring
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
