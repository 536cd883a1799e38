// Package nodedetail provides the single node view for the TUI.
package nodedetail

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// View shows every field of one node in a scrollable viewport.
type View struct {
	styles *styles.Styles
	graph  driving.GraphReader
	ctx    context.Context

	typeName string
	id       string
	node     *domain.Node
	viewport viewport.Model
	loading  bool
	err      error
}

// NewView creates a new node view.
func NewView(s *styles.Styles, graph driving.GraphReader) *View {
	return &View{
		styles:   s,
		graph:    graph,
		ctx:      context.Background(),
		viewport: viewport.New(80, 20),
	}
}

// SetContext sets the context used for graph reads.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Show loads and displays a node.
func (v *View) Show(typeName, id string) tea.Cmd {
	v.typeName = typeName
	v.id = id
	v.node = nil
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()

	ctx, graph := v.ctx, v.graph
	return func() tea.Msg {
		node, err := graph.GetNode(ctx, typeName, id)
		return messages.NodeLoaded{Type: typeName, Node: node, Err: err}
	}
}

// Update handles messages for the node view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.NodeLoaded:
		if msg.Type != v.typeName || (msg.Node != nil && msg.Node.ID != v.id) {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		v.node = msg.Node
		if msg.Err == nil && msg.Node != nil {
			v.viewport.SetContent(v.renderFields(msg.Node))
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewNodes}
			}
		case "p":
			ref, ok := v.parent()
			if !ok {
				return v, nil
			}
			return v, func() tea.Msg {
				return messages.NodeSelected{Type: ref.TypeName, ID: ref.ID}
			}
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// parent returns the reference of the parent node, when the store
// produced one the browser can follow.
func (v *View) parent() (domain.NodeReference, bool) {
	if v.node == nil {
		return domain.NodeReference{}, false
	}
	switch ref := v.node.ParentRef.(type) {
	case domain.NodeReference:
		return ref, true
	case *domain.NodeReference:
		if ref != nil {
			return *ref, true
		}
	}
	return domain.NodeReference{}, false
}

// View renders the node.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("%s / %s", v.typeName, v.id)))
	if v.node != nil {
		b.WriteString("  " + v.styles.Muted.Render(v.node.Path))
	}
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(v.err.Error()))
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading node..."))
	default:
		b.WriteString(v.viewport.View())
	}
	return b.String()
}

func (v *View) renderFields(node *domain.Node) string {
	names := make([]string, 0, len(node.Fields))
	width := 0
	for name := range node.Fields {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		label := v.styles.FieldName.Render(fmt.Sprintf("%-*s", width, name))
		value := strings.ReplaceAll(FormatValue(node.Fields[name]), "\n", "\n"+strings.Repeat(" ", width+2))
		lines = append(lines, label+"  "+v.styles.FieldValue.Render(value))
	}
	return strings.Join(lines, "\n")
}

// FormatValue renders a normalised field value for display.
func FormatValue(value any) string {
	switch t := value.(type) {
	case nil:
		return "null"
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case domain.NodeReference:
		return fmt.Sprintf("-> %s/%s", t.TypeName, t.ID)
	case *domain.NodeReference:
		if t == nil {
			return "null"
		}
		return fmt.Sprintf("-> %s/%s", t.TypeName, t.ID)
	case map[string]any, []any:
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = height - 4
}

// TypeName returns the type of the node shown.
func (v *View) TypeName() string {
	return v.typeName
}

// ID returns the id of the node shown.
func (v *View) ID() string {
	return v.id
}

// Node returns the node shown, if loaded.
func (v *View) Node() *domain.Node {
	return v.node
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
