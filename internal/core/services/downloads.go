package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// partialSuffix marks a transfer that has not completed yet.
const partialSuffix = ".part"

// DownloadOptions configures a DownloadQueue.
type DownloadOptions struct {
	Directory     string
	Concurrency   int
	Timeout       time.Duration
	RatePerSecond float64

	// Paths is the table shared with the normaliser. Created from
	// Directory when nil.
	Paths *ImagePaths
}

// DrainResult summarises the transfers settled by one drain.
type DrainResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// QueueStats are cumulative queue counters.
type QueueStats struct {
	Registered int
	Pending    int
	Downloaded int
	Skipped    int
	Failed     int
}

// Transfer is the handle of one image transfer.
type Transfer struct {
	Image domain.ImageRegistration

	done    chan struct{}
	err     error
	skipped bool
}

// Done is closed once the transfer has settled.
func (t *Transfer) Done() <-chan struct{} {
	return t.done
}

// Err returns the transfer error. Only meaningful after Done is closed.
func (t *Transfer) Err() error {
	return t.err
}

// Skipped reports whether the file already existed locally.
// Only meaningful after Done is closed.
func (t *Transfer) Skipped() bool {
	return t.skipped
}

// DownloadQueue mirrors registered images into a local directory with
// bounded concurrency. Every image is transferred at most once per queue.
type DownloadQueue struct {
	fetcher driven.ImageFetcher
	dir     string
	timeout time.Duration
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	paths     *ImagePaths
	mu        sync.Mutex
	images    map[string]*queuedImage
	order     []string
	stats     QueueStats
	dirExists bool
}

type queuedImage struct {
	reg      domain.ImageRegistration
	transfer *Transfer
}

// NewDownloadQueue creates a queue. Zero options fall back to the defaults.
func NewDownloadQueue(fetcher driven.ImageFetcher, opts DownloadOptions) *DownloadQueue {
	if opts.Directory == "" {
		opts.Directory = domain.DefaultImageDirectory
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = domain.DefaultDownloadConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = domain.DefaultDownloadTimeout
	}
	if opts.Paths == nil {
		opts.Paths = NewImagePaths(opts.Directory)
	}

	q := &DownloadQueue{
		fetcher: fetcher,
		dir:     opts.Directory,
		timeout: opts.Timeout,
		sem:     semaphore.NewWeighted(int64(opts.Concurrency)),
		paths:   opts.Paths,
		images:  make(map[string]*queuedImage),
	}
	if opts.RatePerSecond > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Concurrency)
	}
	return q
}

// Register records an image for a later drain. It reports whether the
// image was new. An image whose local path is already claimed by a
// different URL is stored under a unique name instead.
func (q *DownloadQueue) Register(reg domain.ImageRegistration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.registerLocked(reg)
}

func (q *DownloadQueue) registerLocked(reg domain.ImageRegistration) bool {
	if _, ok := q.images[reg.ID]; ok {
		return false
	}
	if path := q.paths.claimPath(reg.ID, reg.LocalPath); path != reg.LocalPath {
		logger.Warn("image %s: local path %s already used, writing %s", reg.URL, reg.LocalPath, path)
		reg.LocalPath = path
	}
	q.images[reg.ID] = &queuedImage{reg: reg}
	q.order = append(q.order, reg.ID)
	q.stats.Registered++
	q.stats.Pending++
	return true
}

// Enqueue registers the image if needed and starts its transfer.
// The returned handle is shared by every caller for the same image.
func (q *DownloadQueue) Enqueue(ctx context.Context, reg domain.ImageRegistration) *Transfer {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.registerLocked(reg)
	return q.startLocked(ctx, q.images[reg.ID])
}

// Drain starts every registered image not yet transferred and waits until
// those and any transfers already in flight have settled. Failures are
// counted, not returned; the only error is a cancelled context.
func (q *DownloadQueue) Drain(ctx context.Context) (DrainResult, error) {
	q.mu.Lock()
	transfers := make([]*Transfer, 0, len(q.order))
	for _, id := range q.order {
		img := q.images[id]
		if img.transfer == nil {
			transfers = append(transfers, q.startLocked(ctx, img))
			continue
		}
		select {
		case <-img.transfer.Done():
		default:
			transfers = append(transfers, img.transfer)
		}
	}
	q.mu.Unlock()

	if len(transfers) > 0 {
		logger.Debug("draining %d image transfers", len(transfers))
	}

	var res DrainResult
	for _, t := range transfers {
		select {
		case <-t.Done():
		case <-ctx.Done():
			return res, ctx.Err()
		}
		switch {
		case t.Err() != nil:
			res.Failed++
		case t.Skipped():
			res.Skipped++
		default:
			res.Downloaded++
		}
	}
	return res, nil
}

// Stats returns cumulative counters.
func (q *DownloadQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

func (q *DownloadQueue) startLocked(ctx context.Context, img *queuedImage) *Transfer {
	if img.transfer != nil {
		return img.transfer
	}
	t := &Transfer{Image: img.reg, done: make(chan struct{})}
	img.transfer = t
	q.stats.Pending--

	go q.run(ctx, t)
	return t
}

func (q *DownloadQueue) run(ctx context.Context, t *Transfer) {
	defer close(t.done)

	t.skipped, t.err = q.transfer(ctx, t.Image)

	q.mu.Lock()
	switch {
	case t.err != nil:
		q.stats.Failed++
	case t.skipped:
		q.stats.Skipped++
	default:
		q.stats.Downloaded++
	}
	q.mu.Unlock()

	if t.err != nil {
		logger.Warn("image %s: %v", t.Image.URL, t.err)
	}
}

func (q *DownloadQueue) transfer(ctx context.Context, reg domain.ImageRegistration) (bool, error) {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}
	defer q.sem.Release(1)

	if _, err := os.Stat(reg.LocalPath); err == nil {
		return true, nil
	}

	if err := q.ensureDir(); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}

	if q.limiter != nil {
		if err := q.limiter.Wait(ctx); err != nil {
			return false, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	if err := q.write(ctx, reg); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}
	logger.Debug("downloaded %s -> %s", reg.URL, reg.LocalPath)
	return false, nil
}

func (q *DownloadQueue) write(ctx context.Context, reg domain.ImageRegistration) (err error) {
	body, err := q.fetcher.Fetch(ctx, reg.URL)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer body.Close()

	partial := reg.LocalPath + partialSuffix
	f, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(partial)
		}
	}()

	if _, err = io.Copy(f, body); err != nil {
		_ = f.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err = os.Rename(partial, reg.LocalPath); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

func (q *DownloadQueue) ensureDir() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.dirExists {
		return nil
	}
	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}
	q.dirExists = true
	return nil
}

// WaitTransfer blocks until t settles and returns its error.
func WaitTransfer(ctx context.Context, t *Transfer) error {
	select {
	case <-t.Done():
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
