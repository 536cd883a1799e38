package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/textutil"
)

// fakeFetcher serves image bodies from memory and records every call.
type fakeFetcher struct {
	mu        sync.Mutex
	calls     map[string]int
	failures  map[string]error
	block     map[string]bool
	delay     time.Duration
	inFlight  int
	maxFlight int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls:    make(map[string]int),
		failures: make(map[string]error),
		block:    make(map[string]bool),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.calls[url]++
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	err := f.failures[url]
	block := f.block[url]
	delay := f.delay
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader("image:" + url)), nil
}

func (f *fakeFetcher) fail(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[url] = errors.New("connection reset")
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeFetcher) callsFor(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxFlight
}

// testEngine wires the core services over memory adapters.
type testEngine struct {
	store    *memory.ContentStore
	registry *TypeRegistry
	builder  *NodeBuilder
	queue    *DownloadQueue
	fetcher  *fakeFetcher
}

func newTestEngine(imageDir string) *testEngine {
	store := memory.NewContentStore()
	namer := domain.NewTypeNamer("")
	fetcher := newFakeFetcher()
	paths := NewImagePaths(imageDir)
	normaliser := NewNormaliser(NormaliserOptions{
		Namer:             namer,
		References:        store.CreateReference,
		Hash:              textutil.HashURL,
		ImageDirectory:    imageDir,
		ResolveReferences: true,
		ImagePaths:        paths,
	})
	return &testEngine{
		store:    store,
		registry: NewTypeRegistry(store),
		builder:  NewNodeBuilder(normaliser, textutil.Slugify, namer, store.CreateReference),
		queue:    NewDownloadQueue(fetcher, DownloadOptions{Directory: imageDir, Paths: paths}),
		fetcher:  fetcher,
	}
}

func record(path string, fields map[string]domain.Value, parent *domain.DocumentRecord) *domain.DocumentRecord {
	return domain.NewDocumentRecord(domain.RawDocument{Path: domain.MustParsePath(path), Fields: fields}, parent)
}

func nodeIDs(nodes []domain.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}
