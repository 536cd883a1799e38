package nodelist

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docgraph/internal/core/domain"
)

type stubGraph struct {
	nodes map[string][]domain.Node
}

func (g *stubGraph) ListTypes(context.Context) ([]string, error) {
	return nil, nil
}

func (g *stubGraph) ListNodes(_ context.Context, typeName string) ([]domain.Node, error) {
	nodes, ok := g.nodes[typeName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return nodes, nil
}

func (g *stubGraph) GetNode(context.Context, string, string) (*domain.Node, error) {
	return nil, domain.ErrNotFound
}

func (g *stubGraph) FindByPath(context.Context, string, string) (*domain.Node, error) {
	return nil, domain.ErrNotFound
}

func newLoadedView(t *testing.T) *View {
	t.Helper()
	graph := &stubGraph{nodes: map[string][]domain.Node{
		"FireUsers": {
			{ID: "alice", Path: "/alice-liddell"},
			{ID: "bob", Path: "/bob"},
			{ID: "carol", Path: "/carol"},
		},
	}}
	v := NewView(styles.DefaultStyles(), graph)
	cmd := v.SetType("FireUsers")
	v, _ = v.Update(cmd())
	require.Equal(t, 3, v.Count())
	return v
}

func typeText(v *View, s string) *View {
	for _, r := range s {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return v
}

func TestView_SetType(t *testing.T) {
	v := newLoadedView(t)
	assert.Equal(t, "FireUsers", v.Type())
	assert.Equal(t, "alice", v.SelectedID())
	assert.Contains(t, v.View(), "FireUsers (3)")
	assert.Contains(t, v.View(), "/alice-liddell")
}

func TestView_IgnoresStaleResults(t *testing.T) {
	v := newLoadedView(t)
	v, _ = v.Update(messages.NodesLoaded{Type: "FireTags", Nodes: []domain.Node{{ID: "go"}}})
	assert.Equal(t, 3, v.Count())
}

func TestView_UnknownType(t *testing.T) {
	v := NewView(styles.DefaultStyles(), &stubGraph{})
	v, _ = v.Update(v.SetType("FireGhosts")())
	assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
}

func TestView_SelectNode(t *testing.T) {
	v := newLoadedView(t)
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.NodeSelected{Type: "FireUsers", ID: "bob"}, cmd())
}

func TestView_Filter(t *testing.T) {
	v := newLoadedView(t)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	require.True(t, v.FilterFocused())

	v = typeText(v, "LID")
	assert.Equal(t, 1, v.Count())
	assert.Equal(t, "alice", v.SelectedID())
	assert.Contains(t, v.View(), "(1 of 3)")

	// Enter leaves the filter applied.
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, v.FilterFocused())
	assert.Equal(t, 1, v.Count())

	// The first esc clears the filter, the second goes back.
	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Equal(t, 3, v.Count())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewTypes}, cmd())
}

func TestView_FilterEscResets(t *testing.T) {
	v := newLoadedView(t)
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	v = typeText(v, "bo")
	assert.Equal(t, 1, v.Count())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, v.FilterFocused())
	assert.Equal(t, 3, v.Count())
}

func TestView_SetTypeResetsFilter(t *testing.T) {
	v := newLoadedView(t)
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	v = typeText(v, "zzz")
	assert.Zero(t, v.Count())

	v, _ = v.Update(v.SetType("FireUsers")())
	assert.False(t, v.FilterFocused())
	assert.Equal(t, 3, v.Count())
}
