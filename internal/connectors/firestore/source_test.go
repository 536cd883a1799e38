package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

const testRoot = "projects/demo/databases/(default)/documents"

// fakeFirestore serves the subset of the REST API the source uses.
type fakeFirestore struct {
	mu       sync.Mutex
	docs     map[string]map[string]any
	versions map[string]int
	requests int
	status   int
	header   http.Header
}

func newFakeFirestore() *fakeFirestore {
	return &fakeFirestore{
		docs:     make(map[string]map[string]any),
		versions: make(map[string]int),
	}
}

func (f *fakeFirestore) put(path string, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := testRoot + "/" + path
	f.docs[name] = fields
	f.versions[name]++
}

func (f *fakeFirestore) remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, testRoot+"/"+path)
}

func (f *fakeFirestore) fail(status int, header http.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.header = header
}

func (f *fakeFirestore) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeFirestore) document(name string) map[string]any {
	return map[string]any{
		"name":       name,
		"fields":     f.docs[name],
		"updateTime": fmt.Sprintf("2024-01-01T00:00:%02dZ", f.versions[name]%60),
	}
}

func (f *fakeFirestore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		for k, v := range f.header {
			w.Header()[k] = v
		}
		w.WriteHeader(f.status)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"injected"}}`, f.status)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/v1/")
	rel := strings.TrimPrefix(name, testRoot+"/")
	segments := strings.Split(rel, "/")

	if len(segments)%2 == 0 {
		if _, ok := f.docs[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found","status":"NOT_FOUND"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(f.document(name))
		return
	}

	var names []string
	for docName := range f.docs {
		if docName[:strings.LastIndex(docName, "/")] == name {
			names = append(names, docName)
		}
	}
	sort.Strings(names)
	docs := make([]any, 0, len(names))
	for _, n := range names {
		docs = append(docs, f.document(n))
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

func newTestSource(t *testing.T, fake *fakeFirestore, interval time.Duration) *Source {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), Config{
		ProjectID:    "demo",
		Endpoint:     srv.URL + "/",
		HTTPClient:   srv.Client(),
		PollInterval: interval,
		RateLimit:    RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fetchPath(t *testing.T, s *Source, path string) (domain.Snapshot, error) {
	t.Helper()
	q, err := s.Resolve(context.Background(), domain.MustParsePath(path))
	require.NoError(t, err)
	return s.Fetch(context.Background(), q)
}

func TestNew_RequiresProject(t *testing.T) {
	_, err := New(context.Background(), Config{Endpoint: "http://localhost"})
	var ce *domain.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "source.project_id", ce.Field)
}

func TestNew_MissingCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{ProjectID: "demo", CredentialsFile: "/does/not/exist.json"})
	assert.Error(t, err)
}

func TestSource_FetchCollection(t *testing.T) {
	fake := newFakeFirestore()
	fake.put("users/bob", map[string]any{"name": map[string]any{"stringValue": "Bob"}})
	fake.put("users/alice", map[string]any{
		"name":  map[string]any{"stringValue": "Alice"},
		"age":   map[string]any{"integerValue": "30"},
		"boss":  map[string]any{"referenceValue": testRoot + "/users/bob"},
		"since": map[string]any{"timestampValue": "2024-03-01T12:00:00Z"},
	})
	fake.put("users/alice/posts/p1", map[string]any{"title": map[string]any{"stringValue": "First"}})
	s := newTestSource(t, fake, time.Hour)

	snap, err := fetchPath(t, s, "users")
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotMulti, snap.Shape)
	require.Len(t, snap.Documents, 2)

	alice := snap.Documents[0]
	assert.Equal(t, domain.MustParsePath("users/alice"), alice.Path)
	assert.Equal(t, domain.String("Alice"), alice.Fields["name"])
	assert.Equal(t, domain.Number(30), alice.Fields["age"])
	assert.Equal(t, domain.Reference{Path: domain.MustParsePath("users/bob")}, alice.Fields["boss"])
	assert.Equal(t, domain.Timestamp(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)), alice.Fields["since"])

	posts, err := fetchPath(t, s, "users/alice/posts")
	require.NoError(t, err)
	require.Len(t, posts.Documents, 1)
	assert.Equal(t, domain.MustParsePath("users/alice/posts/p1"), posts.Documents[0].Path)

	empty, err := fetchPath(t, s, "tags")
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotEmpty, empty.Shape)
}

func TestSource_FetchZeroValues(t *testing.T) {
	fake := newFakeFirestore()
	fake.put("users/alice", map[string]any{
		"nickname": map[string]any{"stringValue": ""},
		"admin":    map[string]any{"booleanValue": false},
		"visits":   map[string]any{"integerValue": "0"},
	})
	s := newTestSource(t, fake, time.Hour)

	snap, err := fetchPath(t, s, "users/alice")
	require.NoError(t, err)
	fields := snap.Documents[0].Fields
	assert.Equal(t, domain.String(""), fields["nickname"])
	assert.Equal(t, domain.Bool(false), fields["admin"])
	assert.Equal(t, domain.Number(0), fields["visits"])
}

func TestSource_FetchDocument(t *testing.T) {
	fake := newFakeFirestore()
	fake.put("users/alice", map[string]any{"name": map[string]any{"stringValue": "Alice"}})
	s := newTestSource(t, fake, time.Hour)

	snap, err := fetchPath(t, s, "users/alice")
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotSingle, snap.Shape)
	assert.Equal(t, domain.String("Alice"), snap.Documents[0].Fields["name"])

	missing, err := fetchPath(t, s, "users/ghost")
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotEmpty, missing.Shape)
}

func TestSource_FetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorised", status: http.StatusUnauthorized, want: ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, want: ErrForbidden},
		{name: "rate limited", status: http.StatusTooManyRequests, want: domain.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeFirestore()
			fake.fail(tt.status, http.Header{"Retry-After": []string{"1"}})
			s := newTestSource(t, fake, time.Hour)

			_, err := fetchPath(t, s, "users")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("rate limit backs off", func(t *testing.T) {
		fake := newFakeFirestore()
		fake.fail(http.StatusTooManyRequests, http.Header{"Retry-After": []string{"60"}})
		s := newTestSource(t, fake, time.Hour)

		_, err := fetchPath(t, s, "users")
		require.Error(t, err)
		assert.True(t, IsRateLimited(err))
		assert.False(t, s.limiter.Allow())
	})
}

func TestSource_Close(t *testing.T) {
	s := newTestSource(t, newFakeFirestore(), time.Hour)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := fetchPath(t, s, "users")
	assert.ErrorIs(t, err, domain.ErrSourceClosed)

	_, err = s.Subscribe(context.Background(), query{ref: domain.MustParsePath("users")}, func(domain.Snapshot) {})
	assert.ErrorIs(t, err, domain.ErrSourceClosed)
}

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

func (r *recorder) lastIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.snaps[len(r.snaps)-1]
	ids := make([]string, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		ids = append(ids, doc.Path.Last())
	}
	return ids
}

func TestSource_SubscribePolls(t *testing.T) {
	fake := newFakeFirestore()
	fake.put("users/alice", map[string]any{})
	s := newTestSource(t, fake, 20*time.Millisecond)

	rec := &recorder{}
	sub, err := s.Subscribe(context.Background(), query{ref: domain.MustParsePath("users")}, rec.add)
	require.NoError(t, err)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, []string{"alice"}, rec.lastIDs())

	// Unchanged polls deliver nothing.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, rec.count())

	fake.put("users/bob", map[string]any{})
	fake.remove("users/alice")
	require.Eventually(t, func() bool {
		return rec.count() > 1 && assert.ObjectsAreEqual([]string{"bob"}, rec.lastIDs())
	}, 2*time.Second, 10*time.Millisecond)

	// An update to an existing document also produces a snapshot.
	count := rec.count()
	fake.put("users/bob", map[string]any{"name": map[string]any{"stringValue": "Bob"}})
	require.Eventually(t, func() bool { return rec.count() > count }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sub.Unsubscribe())
	time.Sleep(50 * time.Millisecond)
	requests := fake.requestCount()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, requests, fake.requestCount())
}

func TestSource_SubscribeInitialError(t *testing.T) {
	fake := newFakeFirestore()
	fake.fail(http.StatusForbidden, nil)
	s := newTestSource(t, fake, time.Hour)

	_, err := s.Subscribe(context.Background(), query{ref: domain.MustParsePath("users")}, func(domain.Snapshot) {})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestResolve(t *testing.T) {
	s := newTestSource(t, newFakeFirestore(), time.Hour)
	_, err := s.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPath)

	q, err := s.Resolve(context.Background(), domain.MustParsePath("users"))
	require.NoError(t, err)
	var _ driven.Query = q
	assert.Equal(t, domain.MustParsePath("users"), q.Path())
}
