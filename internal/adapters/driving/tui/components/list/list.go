// Package list provides a navigable list component for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/styles"
)

// Item is one row of a List.
type Item struct {
	// Key identifies the item to the owning view.
	Key string

	// Label is the main column.
	Label string

	// Detail is rendered muted after the label.
	Detail string
}

// List displays items and tracks the selection.
type List struct {
	items    []Item
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// New creates an empty list.
func New(s *styles.Styles) *List {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &List{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles navigation keys.
func (l *List) Update(msg tea.Msg) (*List, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.items) > 0 {
				l.selected = len(l.items) - 1
			}
		}
	}
	return l, nil
}

// View renders the visible window of the list.
func (l *List) View() string {
	if len(l.items) == 0 {
		return l.styles.Muted.Render("Nothing here")
	}

	visible := l.height
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.items) {
		end = len(l.items)
	}

	labelWidth := l.width / 2
	if labelWidth < 16 {
		labelWidth = 16
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		item := l.items[i]
		label := truncate(item.Label, labelWidth)
		if i == l.selected {
			lines = append(lines, l.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", labelWidth, label, item.Detail)))
			continue
		}
		lines = append(lines, l.styles.Normal.Render(fmt.Sprintf("  %-*s  ", labelWidth, label))+
			l.styles.Muted.Render(item.Detail))
	}
	if end < len(l.items) || start > 0 {
		lines = append(lines, l.styles.Muted.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(l.items))))
	}
	return strings.Join(lines, "\n")
}

// SetItems replaces the items. The selection is kept when still in range.
func (l *List) SetItems(items []Item) {
	l.items = items
	if l.selected >= len(items) {
		l.selected = 0
	}
}

// Items returns the current items.
func (l *List) Items() []Item {
	return l.items
}

// Selected returns the index of the selected item.
func (l *List) Selected() int {
	return l.selected
}

// SelectedItem returns the selected item, or false when the list is empty.
func (l *List) SelectedItem() (Item, bool) {
	if l.selected < 0 || l.selected >= len(l.items) {
		return Item{}, false
	}
	return l.items[l.selected], true
}

// MoveUp moves selection up.
func (l *List) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *List) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// SetDimensions sets the width and the number of visible rows.
func (l *List) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of items.
func (l *List) Count() int {
	return len(l.items)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
