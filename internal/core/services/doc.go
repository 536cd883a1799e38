// Package services implements the driving port interfaces.
//
// Loader owns a load: it walks the collection definitions through the
// Traverser, builds nodes with the NodeBuilder and Normaliser, hands images
// to the DownloadQueue and keeps watched collections in sync through the
// SyncMonitor. GraphService reads the materialised graph back.
//
// Services depend on the driven ports only and never on an adapter.
package services
