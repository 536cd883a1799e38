package driven

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// DocumentSource is the document-database collaborator.
// Each connector (filesystem, firestore, memory) implements this interface.
// Connection and authentication are owned by the connector.
type DocumentSource interface {
	// Type returns the connector type identifier.
	Type() string

	// Resolve turns a collection or document path into an executable query.
	Resolve(ctx context.Context, ref domain.Path) (Query, error)

	// Fetch executes the query once. A reference that matches nothing
	// yields an empty snapshot, not an error.
	Fetch(ctx context.Context, q Query) (domain.Snapshot, error)

	// Subscribe delivers an initial snapshot and then a new full snapshot
	// after every change to the referenced collection or document.
	// Notifications for one subscription are delivered sequentially.
	Subscribe(ctx context.Context, q Query, onSnapshot func(domain.Snapshot)) (Subscription, error)

	// Close releases resources.
	Close() error
}

// Query is an opaque, resolved reference.
type Query interface {
	// Path returns the referenced path.
	Path() domain.Path
}

// Subscription is a live subscription handle owned by the caller.
type Subscription interface {
	// Unsubscribe stops notifications. It is safe to call more than once.
	Unsubscribe() error
}

// PathQuery is a Query carrying nothing but its path.
// Connectors without query options use it directly.
type PathQuery struct {
	Ref domain.Path
}

// Path implements Query.
func (q PathQuery) Path() domain.Path {
	return q.Ref
}

// SubscriptionFunc adapts a function to the Subscription interface.
type SubscriptionFunc func() error

// Unsubscribe implements Subscription.
func (f SubscriptionFunc) Unsubscribe() error {
	return f()
}
