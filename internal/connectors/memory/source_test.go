package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

func fetch(t *testing.T, s *Source, path string) domain.Snapshot {
	t.Helper()
	ctx := context.Background()
	q, err := s.Resolve(ctx, domain.MustParsePath(path))
	require.NoError(t, err)
	snap, err := s.Fetch(ctx, q)
	require.NoError(t, err)
	return snap
}

func TestSource_Type(t *testing.T) {
	assert.Equal(t, "memory", New().Type())
}

func TestSource_Fetch(t *testing.T) {
	s := New()
	s.MustPut("users/bob", map[string]domain.Value{"name": domain.String("Bob")})
	s.MustPut("users/alice", map[string]domain.Value{"name": domain.String("Alice")})
	s.MustPut("users/alice/posts/p1", map[string]domain.Value{"title": domain.String("Hi")})

	t.Run("collection returns direct children sorted", func(t *testing.T) {
		snap := fetch(t, s, "users")
		assert.Equal(t, domain.SnapshotMulti, snap.Shape)
		require.Len(t, snap.Documents, 2)
		assert.Equal(t, "users/alice", snap.Documents[0].Path.String())
		assert.Equal(t, "users/bob", snap.Documents[1].Path.String())
	})

	t.Run("document reference returns single", func(t *testing.T) {
		snap := fetch(t, s, "users/alice")
		assert.Equal(t, domain.SnapshotSingle, snap.Shape)
		require.Len(t, snap.Documents, 1)
		assert.Equal(t, domain.String("Alice"), snap.Documents[0].Fields["name"])
	})

	t.Run("missing document is empty", func(t *testing.T) {
		snap := fetch(t, s, "users/carol")
		assert.Equal(t, domain.SnapshotEmpty, snap.Shape)
	})

	t.Run("empty collection is empty", func(t *testing.T) {
		snap := fetch(t, s, "tags")
		assert.Equal(t, domain.SnapshotEmpty, snap.Shape)
	})

	t.Run("sub-collection", func(t *testing.T) {
		snap := fetch(t, s, "users/alice/posts")
		require.Len(t, snap.Documents, 1)
		assert.Equal(t, "p1", snap.Documents[0].Path.Last())
	})
}

func TestSource_Put_RejectsCollectionPath(t *testing.T) {
	err := New().Put("users", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

func TestSource_FailFetch(t *testing.T) {
	s := New()
	boom := errors.New("unavailable")
	s.FailFetch("users", boom)

	ctx := context.Background()
	q, err := s.Resolve(ctx, domain.MustParsePath("users"))
	require.NoError(t, err)

	_, err = s.Fetch(ctx, q)
	assert.ErrorIs(t, err, boom)

	s.FailFetch("users", nil)
	_, err = s.Fetch(ctx, q)
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Fetches())
}

func TestSource_Subscribe(t *testing.T) {
	s := New()
	s.MustPut("users/alice", nil)

	var mu sync.Mutex
	var snaps []domain.Snapshot
	ctx := context.Background()
	q, err := s.Resolve(ctx, domain.MustParsePath("users"))
	require.NoError(t, err)

	sub, err := s.Subscribe(ctx, q, func(snap domain.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snaps = append(snaps, snap)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Subscriptions())

	s.MustPut("users/bob", nil)
	require.NoError(t, s.Delete("users/alice"))
	s.MustPut("posts/p1", nil)

	mu.Lock()
	require.Len(t, snaps, 3)
	assert.Len(t, snaps[0].Documents, 1)
	assert.Len(t, snaps[1].Documents, 2)
	assert.Len(t, snaps[2].Documents, 1)
	assert.Equal(t, "users/bob", snaps[2].Documents[0].Path.String())
	mu.Unlock()

	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, 0, s.Subscriptions())

	s.MustPut("users/carol", nil)
	mu.Lock()
	assert.Len(t, snaps, 3)
	mu.Unlock()
}

func TestSource_Close(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	ctx := context.Background()
	_, err := s.Fetch(ctx, driven.PathQuery{Ref: domain.MustParsePath("users")})
	assert.ErrorIs(t, err, domain.ErrSourceClosed)

	_, err = s.Subscribe(ctx, driven.PathQuery{Ref: domain.MustParsePath("users")}, func(domain.Snapshot) {})
	assert.ErrorIs(t, err, domain.ErrSourceClosed)
}
