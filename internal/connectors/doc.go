// Package connectors holds the DocumentSource implementations.
//
//   - filesystem: JSON documents in a directory tree, watched with fsnotify
//   - firestore: the Firestore REST API, polled for live sync
//   - memory: an in-process source for tests and embedding
//
// Each connector lives in its own package and is selected by the CLI from
// the [source] type setting.
package connectors
