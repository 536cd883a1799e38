package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// subscription watches one directory and re-reads the referenced path
// after every burst of changes.
type subscription struct {
	source   *Source
	ref      domain.Path
	target   string
	callback func(domain.Snapshot)

	watcher  *fsnotify.Watcher
	watching string

	stopOnce sync.Once
	stopped  chan struct{}
}

// Subscribe delivers the current snapshot, then a full snapshot after every
// change to the referenced directory. The subscription ends on Unsubscribe,
// Close or cancellation of ctx.
func (s *Source) Subscribe(ctx context.Context, q driven.Query, onSnapshot func(domain.Snapshot)) (driven.Subscription, error) {
	ref := q.Path()

	// Documents are watched through their collection directory.
	target := s.dirPath(ref.Collection())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	sub := &subscription{
		source:   s,
		ref:      ref,
		target:   target,
		callback: onSnapshot,
		watcher:  watcher,
		stopped:  make(chan struct{}),
	}
	if err := sub.arm(); err != nil {
		watcher.Close()
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		watcher.Close()
		return nil, domain.ErrSourceClosed
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	initial, err := s.snapshot(ref)
	if err != nil {
		s.forget(sub)
		sub.stop()
		return nil, err
	}
	onSnapshot(initial)

	go sub.loop(ctx)

	return driven.SubscriptionFunc(func() error {
		s.forget(sub)
		sub.stop()
		return nil
	}), nil
}

func (s *Source) forget(sub *subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

// arm watches the target directory, or its nearest existing ancestor
// while the target does not exist yet.
func (sub *subscription) arm() error {
	dir := sub.target
	for {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			break
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir || len(dir) <= len(sub.source.rootPath) {
			return fmt.Errorf("root path error: %w", fs.ErrNotExist)
		}
		dir = parent
	}

	if dir == sub.watching {
		return nil
	}
	if err := sub.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	if sub.watching != "" {
		_ = sub.watcher.Remove(sub.watching)
	}
	sub.watching = dir
	return nil
}

func (sub *subscription) loop(ctx context.Context) {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-sub.stopped:
			return
		case <-ctx.Done():
			sub.stop()
			return
		case event, ok := <-sub.watcher.Events:
			if !ok {
				return
			}
			if isHidden(filepath.Base(event.Name)) || event.Op == fsnotify.Chmod {
				continue
			}
			if sub.watching != sub.target {
				if err := sub.arm(); err != nil {
					logger.Warn("filesystem: %v", err)
				}
			}
			if timer == nil {
				timer = time.NewTimer(sub.source.debounce)
				timerC = timer.C
			} else {
				timer.Reset(sub.source.debounce)
			}
		case err, ok := <-sub.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("filesystem: watching %s: %v", sub.ref, err)
		case <-timerC:
			timer, timerC = nil, nil
			snap, err := sub.source.snapshot(sub.ref)
			if err != nil {
				// Usually a document caught mid-write; the next event retries.
				logger.Warn("filesystem: refreshing %s: %v", sub.ref, err)
				continue
			}
			select {
			case <-sub.stopped:
				return
			default:
			}
			sub.callback(snap)
		}
	}
}

// stop ends the loop. Safe to call more than once.
func (sub *subscription) stop() {
	sub.stopOnce.Do(func() {
		close(sub.stopped)
		sub.watcher.Close()
	})
}
