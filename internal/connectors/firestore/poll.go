package firestore

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// subscription polls one reference.
type subscription struct {
	source   *Source
	ref      domain.Path
	callback func(domain.Snapshot)
	version  string

	stopOnce sync.Once
	stopped  chan struct{}
}

// Subscribe delivers the current snapshot, then polls every PollInterval and
// delivers a new full snapshot whenever a document was added, removed or
// updated. Poll failures are logged and retried on the next tick.
func (s *Source) Subscribe(ctx context.Context, q driven.Query, onSnapshot func(domain.Snapshot)) (driven.Subscription, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrSourceClosed
	}
	s.mu.Unlock()

	initial, version, err := s.fetch(ctx, q.Path())
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		source:   s,
		ref:      q.Path(),
		callback: onSnapshot,
		version:  version,
		stopped:  make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrSourceClosed
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	onSnapshot(initial)
	go sub.loop(ctx)

	return driven.SubscriptionFunc(func() error {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		sub.stop()
		return nil
	}), nil
}

func (sub *subscription) loop(ctx context.Context) {
	ticker := time.NewTicker(sub.source.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.stopped:
			return
		case <-ctx.Done():
			sub.stop()
			return
		case <-ticker.C:
			sub.poll(ctx)
		}
	}
}

func (sub *subscription) poll(ctx context.Context) {
	// Unsubscribe cancels in-flight requests through stopped.
	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sub.stopped:
			cancel()
		case <-pollCtx.Done():
		}
	}()

	snap, version, err := sub.source.fetch(pollCtx, sub.ref)
	if err != nil {
		select {
		case <-sub.stopped:
		default:
			logger.Warn("firestore: polling %s: %v", sub.ref, err)
		}
		return
	}
	if version == sub.version {
		return
	}
	sub.version = version

	select {
	case <-sub.stopped:
		return
	default:
	}
	sub.callback(snap)
}

// stop ends the loop. Safe to call more than once.
func (sub *subscription) stop() {
	sub.stopOnce.Do(func() {
		close(sub.stopped)
	})
}
