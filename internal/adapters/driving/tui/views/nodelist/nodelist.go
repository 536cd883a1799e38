// Package nodelist provides the node list view for the TUI.
package nodelist

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// View lists the nodes of one type, optionally filtered by id or path.
type View struct {
	styles *styles.Styles
	graph  driving.GraphReader
	ctx    context.Context

	typeName string
	nodes    []domain.Node
	list     *list.List
	filter   *input.FilterInput
	loading  bool
	err      error
}

// NewView creates a new node list view.
func NewView(s *styles.Styles, graph driving.GraphReader) *View {
	return &View{
		styles: s,
		graph:  graph,
		ctx:    context.Background(),
		list:   list.New(s),
		filter: input.NewFilterInput(s),
	}
}

// SetContext sets the context used for graph reads.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetType switches to a type and loads its nodes.
func (v *View) SetType(typeName string) tea.Cmd {
	v.typeName = typeName
	v.nodes = nil
	v.err = nil
	v.filter.Reset()
	v.filter.Blur()
	v.list.SetItems(nil)
	return v.Load()
}

// Load returns a command that reads the nodes of the current type.
func (v *View) Load() tea.Cmd {
	v.loading = true
	ctx, graph, typeName := v.ctx, v.graph, v.typeName
	return func() tea.Msg {
		nodes, err := graph.ListNodes(ctx, typeName)
		return messages.NodesLoaded{Type: typeName, Nodes: nodes, Err: err}
	}
}

// Update handles messages for the node list.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.NodesLoaded:
		// A late result for a type we already left.
		if msg.Type != v.typeName {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.nodes = msg.Nodes
			v.applyFilter()
		}
		return v, nil

	case tea.KeyMsg:
		if v.filter.Focused() {
			return v.handleFilterKey(msg)
		}
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		item, ok := v.list.SelectedItem()
		if !ok {
			return v, nil
		}
		typeName := v.typeName
		return v, func() tea.Msg {
			return messages.NodeSelected{Type: typeName, ID: item.Key}
		}
	case "/":
		return v, v.filter.Focus()
	case "r":
		return v, v.Load()
	case "esc":
		if v.filter.Value() != "" {
			v.filter.Reset()
			v.applyFilter()
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewTypes}
		}
	}
	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) handleFilterKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		v.filter.Blur()
		return v, nil
	case "esc":
		v.filter.Reset()
		v.filter.Blur()
		v.applyFilter()
		return v, nil
	}
	var cmd tea.Cmd
	v.filter, cmd = v.filter.Update(msg)
	v.applyFilter()
	return v, cmd
}

func (v *View) applyFilter() {
	needle := strings.ToLower(strings.TrimSpace(v.filter.Value()))
	items := make([]list.Item, 0, len(v.nodes))
	for i := range v.nodes {
		n := &v.nodes[i]
		if needle != "" &&
			!strings.Contains(strings.ToLower(n.ID), needle) &&
			!strings.Contains(strings.ToLower(n.Path), needle) {
			continue
		}
		items = append(items, list.Item{Key: n.ID, Label: n.ID, Detail: n.Path})
	}
	v.list.SetItems(items)
}

// View renders the node list.
func (v *View) View() string {
	var b strings.Builder
	title := fmt.Sprintf("%s (%d)", v.typeName, len(v.nodes))
	if v.list.Count() != len(v.nodes) {
		title = fmt.Sprintf("%s (%d of %d)", v.typeName, v.list.Count(), len(v.nodes))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	if v.filter.Focused() || v.filter.Value() != "" {
		b.WriteString(v.filter.View())
	}
	b.WriteString("\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(v.err.Error()))
	case v.loading && len(v.nodes) == 0:
		b.WriteString(v.styles.Muted.Render("Loading nodes..."))
	default:
		b.WriteString(v.list.View())
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.list.SetDimensions(width, height-6)
	v.filter.SetWidth(width)
}

// Type returns the type being listed.
func (v *View) Type() string {
	return v.typeName
}

// Count returns the number of nodes shown after filtering.
func (v *View) Count() int {
	return v.list.Count()
}

// SelectedID returns the id of the highlighted node.
func (v *View) SelectedID() string {
	item, _ := v.list.SelectedItem()
	return item.Key
}

// FilterFocused reports whether keystrokes go to the filter input.
func (v *View) FilterFocused() bool {
	return v.filter.Focused()
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
