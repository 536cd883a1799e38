package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// ConnectorType is the identifier of this connector.
const ConnectorType = "filesystem"

// documentExt is the extension of document files.
const documentExt = ".json"

// DefaultDebounce coalesces bursts of filesystem events into one snapshot.
const DefaultDebounce = 50 * time.Millisecond

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Source reads JSON documents from a directory tree.
//
// A collection is a directory and a document is a <id>.json file inside it.
// Sub-collections of a document live in the directory <id>/ next to the file:
//
//	users/alice.json
//	users/alice/posts/first.json
type Source struct {
	rootPath string
	debounce time.Duration

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

// Option configures a Source.
type Option func(*Source)

// WithDebounce sets how long change events are coalesced before a
// snapshot is delivered.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// New creates a source rooted at rootPath.
func New(rootPath string, opts ...Option) *Source {
	s := &Source{
		rootPath: rootPath,
		debounce: DefaultDebounce,
		subs:     make(map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Type returns the connector type identifier.
func (s *Source) Type() string {
	return ConnectorType
}

// Validate checks that the root exists and is a directory.
func (s *Source) Validate() error {
	info, err := os.Stat(s.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", s.rootPath)
	}
	return nil
}

// Resolve rejects segments that could escape the root or name hidden files.
func (s *Source) Resolve(_ context.Context, ref domain.Path) (driven.Query, error) {
	if len(ref) == 0 {
		return nil, domain.ErrInvalidPath
	}
	for _, seg := range ref {
		if seg == "." || seg == ".." || strings.HasPrefix(seg, ".") || strings.ContainsAny(seg, `/\`) {
			return nil, fmt.Errorf("%w: segment %q", domain.ErrInvalidPath, seg)
		}
	}
	return driven.PathQuery{Ref: ref}, nil
}

// Fetch reads the documents under the query path.
func (s *Source) Fetch(ctx context.Context, q driven.Query) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return domain.Snapshot{}, domain.ErrSourceClosed
	}
	return s.snapshot(q.Path())
}

// Close stops every subscription. Later operations fail with ErrSourceClosed.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = make(map[*subscription]struct{})
	s.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	return nil
}

func (s *Source) snapshot(ref domain.Path) (domain.Snapshot, error) {
	if ref.IsDocument() {
		doc, ok, err := s.readDocument(ref)
		if err != nil {
			return domain.Snapshot{}, err
		}
		if !ok {
			return domain.EmptySnapshot(), nil
		}
		return domain.SingleSnapshot(doc), nil
	}

	dir := s.dirPath(ref)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.EmptySnapshot(), nil
		}
		return domain.Snapshot{}, fmt.Errorf("reading collection %s: %w", ref, err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || isHidden(name) || filepath.Ext(name) != documentExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, documentExt))
	}
	sort.Strings(ids)

	docs := make([]domain.RawDocument, 0, len(ids))
	for _, id := range ids {
		doc, ok, err := s.readDocument(ref.Child(id))
		if err != nil {
			return domain.Snapshot{}, err
		}
		if ok {
			docs = append(docs, doc)
		}
	}
	return domain.MultiSnapshot(docs), nil
}

func (s *Source) readDocument(ref domain.Path) (domain.RawDocument, bool, error) {
	data, err := os.ReadFile(s.filePath(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.RawDocument{}, false, nil
		}
		return domain.RawDocument{}, false, fmt.Errorf("reading document %s: %w", ref, err)
	}
	fields, err := decodeDocument(data)
	if err != nil {
		return domain.RawDocument{}, false, fmt.Errorf("document %s: %w", ref, err)
	}
	return domain.RawDocument{Path: ref, Fields: fields}, true, nil
}

// dirPath maps a collection path to its directory.
func (s *Source) dirPath(ref domain.Path) string {
	return filepath.Join(append([]string{s.rootPath}, ref...)...)
}

// filePath maps a document path to its file.
func (s *Source) filePath(ref domain.Path) string {
	return s.dirPath(ref.Parent()) + string(filepath.Separator) + ref.Last() + documentExt
}

// isHidden reports whether a file or any directory in its path is hidden.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
