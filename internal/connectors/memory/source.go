// Package memory provides an in-process document source. Documents are
// written with Put and Delete; every write notifies matching subscriptions
// with a fresh full snapshot.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// ConnectorType is the identifier of this connector.
const ConnectorType = "memory"

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Source is an in-memory document database.
type Source struct {
	mu        sync.RWMutex
	docs      map[string]domain.RawDocument
	fetchErrs map[string]error
	subs      map[int]*subscription
	nextSub   int
	fetches   int
	closed    bool
}

type subscription struct {
	ref      domain.Path
	mu       sync.Mutex
	callback func(domain.Snapshot)
	active   bool
}

// New creates an empty source.
func New() *Source {
	return &Source{
		docs:      make(map[string]domain.RawDocument),
		fetchErrs: make(map[string]error),
		subs:      make(map[int]*subscription),
	}
}

// Type returns the connector type identifier.
func (s *Source) Type() string {
	return ConnectorType
}

// Put creates or replaces the document at path and notifies subscribers.
func (s *Source) Put(path string, fields map[string]domain.Value) error {
	ref, err := domain.ParsePath(path)
	if err != nil {
		return err
	}
	if !ref.IsDocument() {
		return fmt.Errorf("put %s: %w", path, domain.ErrInvalidPath)
	}

	s.mu.Lock()
	s.docs[ref.String()] = domain.RawDocument{Path: ref, Fields: fields}
	s.mu.Unlock()

	s.notify(ref)
	return nil
}

// MustPut is Put for fixtures; it panics on an invalid path.
func (s *Source) MustPut(path string, fields map[string]domain.Value) {
	if err := s.Put(path, fields); err != nil {
		panic(err)
	}
}

// Delete removes the document at path and notifies subscribers.
// Deleting a missing document is a no-op.
func (s *Source) Delete(path string) error {
	ref, err := domain.ParsePath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, existed := s.docs[ref.String()]
	delete(s.docs, ref.String())
	s.mu.Unlock()

	if existed {
		s.notify(ref)
	}
	return nil
}

// FailFetch makes every fetch of path return err. A nil err clears it.
func (s *Source) FailFetch(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fetchErrs, path)
		return
	}
	s.fetchErrs[path] = err
}

// Fetches returns the number of executed fetches.
func (s *Source) Fetches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetches
}

// Resolve validates the path.
func (s *Source) Resolve(_ context.Context, ref domain.Path) (driven.Query, error) {
	if len(ref) == 0 {
		return nil, domain.ErrInvalidPath
	}
	return driven.PathQuery{Ref: ref}, nil
}

// Fetch returns the current documents under the query path.
func (s *Source) Fetch(ctx context.Context, q driven.Query) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Snapshot{}, domain.ErrSourceClosed
	}
	s.fetches++
	if err := s.fetchErrs[q.Path().String()]; err != nil {
		return domain.Snapshot{}, err
	}
	return s.snapshotLocked(q.Path()), nil
}

// Subscribe delivers the current snapshot, then one per change under the path.
func (s *Source) Subscribe(_ context.Context, q driven.Query, onSnapshot func(domain.Snapshot)) (driven.Subscription, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrSourceClosed
	}
	id := s.nextSub
	s.nextSub++
	sub := &subscription{ref: q.Path(), callback: onSnapshot, active: true}
	s.subs[id] = sub
	initial := s.snapshotLocked(q.Path())
	s.mu.Unlock()

	sub.deliver(initial)

	return driven.SubscriptionFunc(func() error {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()

		sub.mu.Lock()
		sub.active = false
		sub.mu.Unlock()
		return nil
	}), nil
}

// Subscriptions returns the number of active subscriptions.
func (s *Source) Subscriptions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Close drops every subscription. Later operations fail with ErrSourceClosed.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]*subscription)
	return nil
}

func (s *Source) notify(changed domain.Path) {
	type delivery struct {
		sub  *subscription
		snap domain.Snapshot
	}

	s.mu.RLock()
	var pending []delivery
	for _, sub := range s.subs {
		if sub.ref.Equal(changed) || sub.ref.Equal(changed.Parent()) {
			pending = append(pending, delivery{sub: sub, snap: s.snapshotLocked(sub.ref)})
		}
	}
	s.mu.RUnlock()

	for _, d := range pending {
		d.sub.deliver(d.snap)
	}
}

func (s *Source) snapshotLocked(ref domain.Path) domain.Snapshot {
	if ref.IsDocument() {
		doc, ok := s.docs[ref.String()]
		if !ok {
			return domain.EmptySnapshot()
		}
		return domain.SingleSnapshot(doc)
	}

	var docs []domain.RawDocument
	for _, doc := range s.docs {
		if doc.Path.Parent().Equal(ref) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path.String() < docs[j].Path.String() })
	return domain.MultiSnapshot(docs)
}

func (sub *subscription) deliver(snap domain.Snapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.active {
		sub.callback(snap)
	}
}
