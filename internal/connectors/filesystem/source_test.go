package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

const eventually = 3 * time.Second

// writeDoc writes a JSON document below root, creating directories.
func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeDoc(t, root, "users/bob.json", `{"name": "Bob"}`)
	writeDoc(t, root, "users/alice.json", `{"name": "Alice"}`)
	writeDoc(t, root, "users/.draft.json", `{"name": "Hidden"}`)
	writeDoc(t, root, "users/notes.txt", `not a document`)
	writeDoc(t, root, "users/alice/posts/p1.json", `{"title": "First"}`)
	return root
}

func fetch(t *testing.T, s *Source, path string) domain.Snapshot {
	t.Helper()
	q, err := s.Resolve(context.Background(), domain.MustParsePath(path))
	require.NoError(t, err)
	snap, err := s.Fetch(context.Background(), q)
	require.NoError(t, err)
	return snap
}

func TestSource_Type(t *testing.T) {
	assert.Equal(t, "filesystem", New(t.TempDir()).Type())
}

func TestSource_Validate(t *testing.T) {
	assert.NoError(t, New(t.TempDir()).Validate())

	err := New("/non/existent/path").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root path error")

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, New(file).Validate())
}

func TestSource_Resolve(t *testing.T) {
	s := New(t.TempDir())
	for _, path := range []domain.Path{nil, {".."}, {"users", ".hidden"}, {`a\b`}} {
		_, err := s.Resolve(context.Background(), path)
		assert.ErrorIs(t, err, domain.ErrInvalidPath, "path %v", path)
	}

	q, err := s.Resolve(context.Background(), domain.MustParsePath("users/alice"))
	require.NoError(t, err)
	assert.Equal(t, domain.MustParsePath("users/alice"), q.Path())
}

func TestSource_FetchCollection(t *testing.T) {
	s := New(seedTree(t))

	snap := fetch(t, s, "users")
	assert.Equal(t, domain.SnapshotMulti, snap.Shape)
	require.Len(t, snap.Documents, 2)
	assert.Equal(t, domain.MustParsePath("users/alice"), snap.Documents[0].Path)
	assert.Equal(t, domain.String("Alice"), snap.Documents[0].Fields["name"])
	assert.Equal(t, domain.MustParsePath("users/bob"), snap.Documents[1].Path)

	posts := fetch(t, s, "users/alice/posts")
	require.Len(t, posts.Documents, 1)
	assert.Equal(t, "p1", posts.Documents[0].Path.Last())
}

func TestSource_FetchDocument(t *testing.T) {
	s := New(seedTree(t))

	snap := fetch(t, s, "users/alice")
	assert.Equal(t, domain.SnapshotSingle, snap.Shape)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, domain.String("Alice"), snap.Documents[0].Fields["name"])

	assert.Equal(t, domain.SnapshotEmpty, fetch(t, s, "users/ghost").Shape)
	assert.Equal(t, domain.SnapshotEmpty, fetch(t, s, "missing").Shape)
}

func TestSource_FetchCorruptDocument(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "users/broken.json", `{"name":`)
	s := New(root)

	q, err := s.Resolve(context.Background(), domain.MustParsePath("users"))
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), q)
	assert.Error(t, err)
}

func TestSource_Close(t *testing.T) {
	s := New(seedTree(t))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Fetch(context.Background(), driven.PathQuery{Ref: domain.MustParsePath("users")})
	assert.ErrorIs(t, err, domain.ErrSourceClosed)

	_, err = s.Subscribe(context.Background(), driven.PathQuery{Ref: domain.MustParsePath("users")}, func(domain.Snapshot) {})
	assert.ErrorIs(t, err, domain.ErrSourceClosed)
}

// recorder collects delivered snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (r *recorder) add(s domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recorder) last() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

func ids(snap domain.Snapshot) []string {
	out := make([]string, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		out = append(out, doc.Path.Last())
	}
	return out
}

func TestSource_Subscribe(t *testing.T) {
	root := seedTree(t)
	s := New(root, WithDebounce(10*time.Millisecond))
	t.Cleanup(func() { _ = s.Close() })

	rec := &recorder{}
	sub, err := s.Subscribe(context.Background(), driven.PathQuery{Ref: domain.MustParsePath("users")}, rec.add)
	require.NoError(t, err)

	// Initial snapshot is delivered synchronously.
	require.Equal(t, 1, rec.count())
	assert.Equal(t, []string{"alice", "bob"}, ids(rec.last()))

	writeDoc(t, root, "users/carol.json", `{"name": "Carol"}`)
	require.NoError(t, os.Remove(filepath.Join(root, "users", "bob.json")))

	require.Eventually(t, func() bool {
		return rec.count() > 1 && assert.ObjectsAreEqual([]string{"alice", "carol"}, ids(rec.last()))
	}, eventually, 10*time.Millisecond)

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, sub.Unsubscribe())

	count := rec.count()
	writeDoc(t, root, "users/dave.json", `{}`)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, count, rec.count())
}

func TestSource_SubscribeMissingCollection(t *testing.T) {
	root := t.TempDir()
	s := New(root, WithDebounce(10*time.Millisecond))
	t.Cleanup(func() { _ = s.Close() })

	rec := &recorder{}
	_, err := s.Subscribe(context.Background(), driven.PathQuery{Ref: domain.MustParsePath("users")}, rec.add)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotEmpty, rec.last().Shape)

	writeDoc(t, root, "users/alice.json", `{"name": "Alice"}`)

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice"}, ids(rec.last()))
	}, eventually, 10*time.Millisecond)
}

func TestSource_SubscribeDocument(t *testing.T) {
	root := seedTree(t)
	s := New(root, WithDebounce(10*time.Millisecond))
	t.Cleanup(func() { _ = s.Close() })

	rec := &recorder{}
	_, err := s.Subscribe(context.Background(), driven.PathQuery{Ref: domain.MustParsePath("users/alice")}, rec.add)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotSingle, rec.last().Shape)

	writeDoc(t, root, "users/alice.json", `{"name": "Alice L"}`)

	require.Eventually(t, func() bool {
		snap := rec.last()
		return len(snap.Documents) == 1 && snap.Documents[0].Fields["name"] == domain.String("Alice L")
	}, eventually, 10*time.Millisecond)
}

func TestSource_SubscribeStopsOnContextCancel(t *testing.T) {
	root := seedTree(t)
	s := New(root, WithDebounce(10*time.Millisecond))
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	_, err := s.Subscribe(ctx, driven.PathQuery{Ref: domain.MustParsePath("users")}, rec.add)
	require.NoError(t, err)

	cancel()
	time.Sleep(50 * time.Millisecond)
	count := rec.count()
	writeDoc(t, root, "users/erin.json", `{}`)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, count, rec.count())
}

func TestSource_SubscribeMissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"))
	_, err := s.Subscribe(context.Background(), driven.PathQuery{Ref: domain.MustParsePath("users")}, func(domain.Snapshot) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root path error")
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/.hidden/file", true},
		{"file.json", false},
		{".", false},
		{"..", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}
