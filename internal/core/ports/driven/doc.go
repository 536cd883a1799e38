// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to function:
//
//   - DocumentSource: Resolves, fetches and subscribes to source collections
//   - ContentStore: Holds materialised types and nodes
//
// # Optional Interfaces
//
// These may be nil when the matching feature is switched off:
//
//   - ImageFetcher: Streams remote images. Unused when images are ignored.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
