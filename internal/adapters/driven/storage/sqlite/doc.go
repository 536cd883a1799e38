// Package sqlite provides a SQLite-backed content store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Node types live in node_types; nodes live in nodes, keyed by type and id,
// with their fields serialised as JSON. Node references and timestamps are written
// as tagged objects so they read back as domain.NodeReference and time.Time.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.docgraph/data/docgraph.db
package sqlite
