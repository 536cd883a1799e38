package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleListTypes(t *testing.T) {
	ctx := context.Background()

	t.Run("returns sorted types", func(t *testing.T) {
		server := newTestServer(t, &Ports{Graph: newTestGraph()})
		_, output, err := server.handleListTypes(ctx, nil, ListTypesInput{})

		require.NoError(t, err)
		assert.Equal(t, []string{"FireUsers", "FireUsersPosts"}, output.Types)
		assert.Equal(t, 2, output.Count)
	})

	t.Run("empty graph returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{Graph: &mockGraph{}})
		_, output, err := server.handleListTypes(ctx, nil, ListTypesInput{})

		require.NoError(t, err)
		assert.NotNil(t, output.Types)
		assert.Zero(t, output.Count)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Graph: &mockGraph{err: errors.New("store closed")}})
		_, _, err := server.handleListTypes(ctx, nil, ListTypesInput{})
		assert.ErrorContains(t, err, "store closed")
	})
}

func TestServer_handleListNodes(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{Graph: newTestGraph()})

	_, output, err := server.handleListNodes(ctx, nil, ListNodesInput{Type: "FireUsers"})
	require.NoError(t, err)
	require.Equal(t, 2, output.Count)
	assert.Equal(t, NodeSummary{
		ID:   "alice",
		Path: "/users/alice",
		URI:  "docgraph://nodes/FireUsers/alice",
	}, output.Nodes[0])

	_, _, err = server.handleListNodes(ctx, nil, ListNodesInput{Type: "Missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_handleGetNode(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{Graph: newTestGraph()})

	_, output, err := server.handleGetNode(ctx, nil, GetNodeInput{Type: "FireUsersPosts", ID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "FireUsersPosts", output.Type)
	assert.Equal(t, "/users/alice/posts/p1", output.Path)
	assert.Equal(t, "First", output.Fields["title"])
	assert.Equal(t, domain.NodeReference{TypeName: "FireUsers", ID: "alice"}, output.Parent)

	_, _, err = server.handleGetNode(ctx, nil, GetNodeInput{Type: "FireUsers", ID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_handleFindNode(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{Graph: newTestGraph()})

	_, output, err := server.handleFindNode(ctx, nil, FindNodeInput{Type: "FireUsers", Path: "/users/bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob", output.ID)
	assert.Nil(t, output.Parent)

	_, _, err = server.handleFindNode(ctx, nil, FindNodeInput{Type: "FireUsers", Path: "/users/carol"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_handleStats(t *testing.T) {
	ctx := context.Background()
	loader := &mockLoader{stats: &driving.LoadStats{
		Nodes:            map[string]int{"FireUsers": 2, "FireUsersPosts": 1},
		ImagesRegistered: 3,
		ImagesDownloaded: 2,
		ImagesFailed:     1,
		Watches:          4,
	}}
	server := newTestServer(t, &Ports{Graph: newTestGraph(), Loader: loader})

	_, output, err := server.handleStats(ctx, nil, StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, output.TotalNodes)
	assert.Equal(t, 3, output.ImagesRegistered)
	assert.Equal(t, 1, output.ImagesFailed)
	assert.Equal(t, 4, output.Watches)

	loader.err = errors.New("boom")
	_, _, err = server.handleStats(ctx, nil, StatsInput{})
	assert.Error(t, err)
}
