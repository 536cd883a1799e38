package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/views/nodedetail"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/views/nodelist"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/views/typelist"
)

// App is the graph browser following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	typesView *typelist.View
	nodesView *nodelist.View
	nodeView  *nodedetail.View
	statusBar *status.Bar

	currentView messages.ViewType

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new browser with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s)
	bar.SetHints(km.TypesHelp())

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		typesView:   typelist.NewView(s, ports.Graph),
		nodesView:   nodelist.NewView(s, ports.Graph),
		nodeView:    nodedetail.NewView(s, ports.Graph),
		statusBar:   bar,
		currentView: messages.ViewTypes,
	}, nil
}

// WithContext sets the context for graph reads.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.typesView.SetContext(ctx)
	a.nodesView.SetContext(ctx)
	a.nodeView.SetContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("docgraph"),
		a.typesView.Load(),
		a.loadStats(),
	)
}

func (a *App) loadStats() tea.Cmd {
	if a.ports.Loader == nil {
		return nil
	}
	ctx, loader := a.ctx, a.ports.Loader
	return func() tea.Msg {
		stats, err := loader.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		// Header and status bar take three lines.
		body := msg.Height - 3
		a.typesView.SetDimensions(msg.Width, body)
		a.nodesView.SetDimensions(msg.Width, body)
		a.nodeView.SetDimensions(msg.Width, body)
		a.statusBar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if keymap.Matches(msg.String(), a.keymap.Quit) && a.quitAllowed() {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewTypes:
			a.typesView, cmd = a.typesView.Update(msg)
		case messages.ViewNodes:
			a.nodesView, cmd = a.nodesView.Update(msg)
		case messages.ViewNode:
			a.nodeView, cmd = a.nodeView.Update(msg)
		}
		return a, cmd

	case messages.TypesLoaded:
		a.typesView, cmd = a.typesView.Update(msg)
		a.statusBar.SetError(msg.Err)
		return a, cmd

	case messages.NodesLoaded:
		a.nodesView, cmd = a.nodesView.Update(msg)
		a.statusBar.SetError(msg.Err)
		return a, cmd

	case messages.NodeLoaded:
		a.nodeView, cmd = a.nodeView.Update(msg)
		a.statusBar.SetError(msg.Err)
		return a, cmd

	case messages.StatsLoaded:
		if msg.Err == nil {
			a.statusBar.SetStats(msg.Stats)
		}
		return a, nil

	case messages.TypeSelected:
		a.switchTo(messages.ViewNodes)
		return a, a.nodesView.SetType(msg.Type)

	case messages.NodeSelected:
		a.switchTo(messages.ViewNode)
		return a, a.nodeView.Show(msg.Type, msg.ID)

	case messages.ViewChanged:
		a.switchTo(msg.View)
		if msg.View == messages.ViewTypes {
			return a, tea.Batch(a.typesView.Load(), a.loadStats())
		}
		return a, nil
	}

	// Viewport scrolling and cursor blink.
	switch a.currentView {
	case messages.ViewNode:
		a.nodeView, cmd = a.nodeView.Update(msg)
	case messages.ViewNodes:
		a.nodesView, cmd = a.nodesView.Update(msg)
	}
	return a, cmd
}

// quitAllowed reports whether q quits rather than being typed or ignored.
func (a *App) quitAllowed() bool {
	switch a.currentView {
	case messages.ViewTypes:
		return true
	case messages.ViewNodes:
		return !a.nodesView.FilterFocused()
	default:
		return false
	}
}

func (a *App) switchTo(view messages.ViewType) {
	a.currentView = view
	a.statusBar.SetError(nil)
	switch view {
	case messages.ViewTypes:
		a.statusBar.SetHints(a.keymap.TypesHelp())
	case messages.ViewNodes:
		a.statusBar.SetHints(a.keymap.NodesHelp())
	case messages.ViewNode:
		a.statusBar.SetHints(a.keymap.NodeHelp())
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewTypes:
		body = a.typesView.View()
	case messages.ViewNodes:
		body = a.nodesView.View()
	case messages.ViewNode:
		body = a.nodeView.View()
	}

	var b strings.Builder
	b.WriteString(a.styles.Breadcrumb.Render(a.breadcrumb()))
	b.WriteString("\n\n")
	b.WriteString(body)

	// Pin the status bar to the bottom line.
	used := strings.Count(b.String(), "\n") + 1
	if gap := a.height - used - 1; gap > 0 {
		b.WriteString(strings.Repeat("\n", gap))
	}
	b.WriteString("\n")
	b.WriteString(a.statusBar.View())
	return b.String()
}

func (a *App) breadcrumb() string {
	parts := []string{"docgraph"}
	switch a.currentView {
	case messages.ViewNodes:
		parts = append(parts, a.nodesView.Type())
	case messages.ViewNode:
		parts = append(parts, a.nodeView.TypeName(), a.nodeView.ID())
	}
	return strings.Join(parts, " > ")
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the error shown in the status bar.
func (a *App) Err() error {
	return a.statusBar.Err()
}
