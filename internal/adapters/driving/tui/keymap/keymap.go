// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings of the graph browser.
type KeyMap struct {
	Quit    key.Binding
	Back    key.Binding
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Refresh key.Binding

	// Filter narrows the node list by id or path.
	Filter key.Binding

	// Parent jumps from a node to its parent node.
	Parent key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Parent: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "parent"),
		),
	}
}

// TypesHelp returns the hints shown on the type list.
func (k *KeyMap) TypesHelp() []key.Binding {
	return []key.Binding{k.Select, k.Refresh, k.Quit}
}

// NodesHelp returns the hints shown on a node list.
func (k *KeyMap) NodesHelp() []key.Binding {
	return []key.Binding{k.Select, k.Filter, k.Refresh, k.Back}
}

// NodeHelp returns the hints shown on a node.
func (k *KeyMap) NodeHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Parent, k.Back}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
