package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// WatchState is the lifecycle state of a watch.
type WatchState int

const (
	// WatchIdle is a watch that has not subscribed yet.
	WatchIdle WatchState = iota
	// WatchSubscribed receives change notifications.
	WatchSubscribed
	// WatchUnsubscribed is terminal.
	WatchUnsubscribed
)

// String returns the state name.
func (s WatchState) String() string {
	switch s {
	case WatchIdle:
		return "idle"
	case WatchSubscribed:
		return "subscribed"
	case WatchUnsubscribed:
		return "unsubscribed"
	default:
		return "unknown"
	}
}

// WatchRequest describes one collection to keep synchronised.
type WatchRequest struct {
	Query    driven.Query
	TypeName string
	Slug     domain.SlugSelector
	ID       domain.IDSelector
	Parent   *domain.DocumentRecord
}

func (r WatchRequest) key() string {
	return r.TypeName + "|" + r.Query.Path().String()
}

// SyncMonitor reconciles types against full snapshots pushed by the source.
type SyncMonitor struct {
	source   driven.DocumentSource
	registry *TypeRegistry
	builder  *NodeBuilder
	queue    *DownloadQueue

	mu      sync.Mutex
	watches map[string]*Watch
	closed  bool
}

// NewSyncMonitor creates a monitor. queue may be nil when images are ignored.
func NewSyncMonitor(source driven.DocumentSource, registry *TypeRegistry, builder *NodeBuilder, queue *DownloadQueue) *SyncMonitor {
	return &SyncMonitor{
		source:   source,
		registry: registry,
		builder:  builder,
		queue:    queue,
		watches:  make(map[string]*Watch),
	}
}

// Watch registers the requested collection and subscribes to it in the
// background; the watch stays idle until the source accepts the
// subscription. Watching the same collection into the same type twice
// returns the existing watch. The subscription outlives ctx; it ends with
// Unsubscribe or Close.
func (m *SyncMonitor) Watch(ctx context.Context, req WatchRequest) (*Watch, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrWatchClosed
	}
	if w, ok := m.watches[req.key()]; ok {
		m.mu.Unlock()
		return w, nil
	}
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := &Watch{
		req:     req,
		monitor: m,
		mailbox: make(chan domain.Snapshot, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
		settled: make(chan struct{}),
		signal:  make(chan struct{}),
	}
	m.watches[req.key()] = w
	m.mu.Unlock()

	go w.loop(wctx)
	go w.subscribe(wctx)
	return w, nil
}

// Watches returns the number of active watches.
func (m *SyncMonitor) Watches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watches)
}

// Close unsubscribes every watch. Later calls to Watch fail.
func (m *SyncMonitor) Close() error {
	m.mu.Lock()
	m.closed = true
	watches := make([]*Watch, 0, len(m.watches))
	for _, w := range m.watches {
		watches = append(watches, w)
	}
	m.mu.Unlock()

	var firstErr error
	for _, w := range watches {
		if err := w.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *SyncMonitor) forget(w *Watch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watches[w.req.key()] == w {
		delete(m.watches, w.req.key())
	}
}

// reconcile makes the type match the snapshot exactly.
func (m *SyncMonitor) reconcile(ctx context.Context, req WatchRequest, snap domain.Snapshot) {
	present := make(map[string]struct{}, len(snap.Documents))
	discovered := false

	for _, record := range snap.Records(req.Parent) {
		node, images := m.builder.Build(record, req.Slug, req.ID)
		present[node.ID] = struct{}{}
		if _, err := m.registry.Upsert(ctx, req.TypeName, node); err != nil {
			logger.Error("sync %s: %v", req.TypeName, err)
		}
		if m.queue == nil {
			continue
		}
		for _, img := range images {
			if m.queue.Register(img) {
				discovered = true
			}
		}
	}

	removed, err := m.registry.Reconcile(ctx, req.TypeName, present)
	if err != nil {
		logger.Error("sync %s: %v", req.TypeName, err)
	}
	logger.Debug("sync %s: %d present, %d removed", req.TypeName, len(present), len(removed))

	if discovered {
		if _, err := m.queue.Drain(ctx); err != nil {
			logger.Warn("sync %s: drain images: %v", req.TypeName, err)
		}
	}
}

// Watch is one live subscription. Notifications are reconciled one at a
// time; a snapshot arriving while another waits replaces it.
type Watch struct {
	req     WatchRequest
	monitor *SyncMonitor
	mailbox chan domain.Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
	settled chan struct{}

	mu     sync.Mutex
	state  WatchState
	sub    driven.Subscription
	err    error
	cycles int
	signal chan struct{}
}

// State returns the lifecycle state.
func (w *Watch) State() WatchState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Cycles returns the number of completed reconciliations.
func (w *Watch) Cycles() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cycles
}

// WaitSubscribed blocks until the subscription attempt has finished. It
// returns the subscribe error, or ErrWatchClosed when the watch ended first.
func (w *Watch) WaitSubscribed(ctx context.Context) error {
	select {
	case <-w.settled:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.err != nil:
		return w.err
	case w.state == WatchSubscribed:
		return nil
	default:
		return domain.ErrWatchClosed
	}
}

// WaitCycles blocks until at least n reconciliations have completed.
func (w *Watch) WaitCycles(ctx context.Context, n int) error {
	for {
		w.mu.Lock()
		if w.cycles >= n {
			w.mu.Unlock()
			return nil
		}
		signal := w.signal
		w.mu.Unlock()

		select {
		case <-signal:
		case <-w.done:
			return domain.ErrWatchClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Unsubscribe stops the watch. Calling it again is a no-op.
func (w *Watch) Unsubscribe() error {
	w.mu.Lock()
	if w.state == WatchUnsubscribed {
		w.mu.Unlock()
		return nil
	}
	w.state = WatchUnsubscribed
	sub := w.sub
	w.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Unsubscribe()
	}
	w.stop()
	w.monitor.forget(w)
	if err != nil {
		return fmt.Errorf("unsubscribe %s: %w", w.req.Query.Path(), err)
	}
	return nil
}

func (w *Watch) stop() {
	w.mu.Lock()
	w.state = WatchUnsubscribed
	w.mu.Unlock()
	w.cancel()
	<-w.done
}

func (w *Watch) subscribe(ctx context.Context) {
	defer close(w.settled)
	path := w.req.Query.Path()

	sub, err := w.monitor.source.Subscribe(ctx, w.req.Query, w.deliver)
	if err != nil {
		w.mu.Lock()
		if w.state != WatchUnsubscribed {
			w.err = fmt.Errorf("subscribe %s: %w", path, err)
			logger.Error("watch %s: %v", w.req.TypeName, w.err)
		}
		w.mu.Unlock()
		w.stop()
		w.monitor.forget(w)
		return
	}

	// Unsubscribe or Close may have run while Subscribe was pending.
	w.mu.Lock()
	if w.state == WatchUnsubscribed {
		w.mu.Unlock()
		if err := sub.Unsubscribe(); err != nil {
			logger.Warn("unsubscribe %s: %v", path, err)
		}
		return
	}
	w.sub = sub
	w.state = WatchSubscribed
	w.mu.Unlock()

	logger.Info("watching %s as %s", path, w.req.TypeName)
}

// deliver hands a snapshot to the watch goroutine without blocking the source.
func (w *Watch) deliver(snap domain.Snapshot) {
	select {
	case w.mailbox <- snap:
		return
	default:
	}
	// Drop the stale snapshot still waiting and keep the newest.
	select {
	case <-w.mailbox:
	default:
	}
	select {
	case w.mailbox <- snap:
	default:
	}
}

func (w *Watch) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-w.mailbox:
			w.monitor.reconcile(ctx, w.req, snap)

			w.mu.Lock()
			w.cycles++
			close(w.signal)
			w.signal = make(chan struct{})
			w.mu.Unlock()
		}
	}
}
