// Package firestore provides a document source backed by the Firestore
// REST API.
//
// Credentials come from a service account key file, an API key, or none
// at all when an emulator endpoint is configured. Requests are throttled by
// a token bucket that backs off after 429 responses.
//
// Subscriptions poll the referenced collection or document and deliver a
// full snapshot only when a document was added, removed or updated.
package firestore
