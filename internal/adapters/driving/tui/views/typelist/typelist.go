// Package typelist provides the node type list view for the TUI.
package typelist

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// View lists every node type with its node count.
type View struct {
	styles *styles.Styles
	graph  driving.GraphReader
	ctx    context.Context

	list    *list.List
	loading bool
	err     error
}

// NewView creates a new type list view.
func NewView(s *styles.Styles, graph driving.GraphReader) *View {
	return &View{
		styles: s,
		graph:  graph,
		ctx:    context.Background(),
		list:   list.New(s),
	}
}

// SetContext sets the context used for graph reads.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Load returns a command that reads the types and their counts.
func (v *View) Load() tea.Cmd {
	v.loading = true
	ctx, graph := v.ctx, v.graph
	return func() tea.Msg {
		return loadTypes(ctx, graph)
	}
}

func loadTypes(ctx context.Context, graph driving.GraphReader) messages.TypesLoaded {
	names, err := graph.ListTypes(ctx)
	if err != nil {
		return messages.TypesLoaded{Err: err}
	}
	types := make([]messages.TypeCount, 0, len(names))
	for _, name := range names {
		nodes, err := graph.ListNodes(ctx, name)
		if err != nil {
			return messages.TypesLoaded{Err: fmt.Errorf("type %s: %w", name, err)}
		}
		types = append(types, messages.TypeCount{Name: name, Count: len(nodes)})
	}
	return messages.TypesLoaded{Types: types}
}

// Update handles messages for the type list.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.TypesLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			items := make([]list.Item, len(msg.Types))
			for i, t := range msg.Types {
				items[i] = list.Item{Key: t.Name, Label: t.Name, Detail: fmt.Sprintf("%d nodes", t.Count)}
			}
			v.list.SetItems(items)
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			item, ok := v.list.SelectedItem()
			if !ok {
				return v, nil
			}
			return v, func() tea.Msg {
				return messages.TypeSelected{Type: item.Key}
			}
		case "r":
			return v, v.Load()
		}
		v.list, _ = v.list.Update(msg)
	}
	return v, nil
}

// View renders the type list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Types (%d)", v.list.Count())))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(v.err.Error()))
	case v.loading && v.list.Count() == 0:
		b.WriteString(v.styles.Muted.Render("Loading types..."))
	case v.list.Count() == 0:
		b.WriteString(v.styles.Muted.Render("No types. Run docgraph load first."))
	default:
		b.WriteString(v.list.View())
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.list.SetDimensions(width, height-3)
}

// Count returns the number of types listed.
func (v *View) Count() int {
	return v.list.Count()
}

// SelectedType returns the highlighted type name.
func (v *View) SelectedType() string {
	item, _ := v.list.SelectedItem()
	return item.Key
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
