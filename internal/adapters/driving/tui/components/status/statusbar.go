// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// Bar shows graph totals or the last error on the left and key hints on the right.
type Bar struct {
	styles *styles.Styles
	hints  []key.Binding
	stats  *driving.LoadStats
	err    error
	width  int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Bar{styles: s, width: 80}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	// Width covers the padding, so the content must fit inside the frame.
	padding := b.width - b.styles.StatusBar.GetHorizontalFrameSize() - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	if b.err != nil {
		return b.styles.Error.Render(fmt.Sprintf("Error: %v", b.err))
	}
	if b.stats == nil {
		return b.styles.Muted.Render("Ready")
	}
	text := fmt.Sprintf("%d nodes in %d types", b.stats.TotalNodes(), len(b.stats.Nodes))
	if b.stats.ImagesRegistered > 0 {
		text += fmt.Sprintf(" | %d/%d images", b.stats.ImagesDownloaded+b.stats.ImagesSkipped, b.stats.ImagesRegistered)
	}
	if b.stats.Watches > 0 {
		text += fmt.Sprintf(" | %d live", b.stats.Watches)
	}
	return b.styles.Normal.Render(text)
}

func (b *Bar) renderRight() string {
	hints := make([]string, 0, len(b.hints))
	for _, binding := range b.hints {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetHints sets the key hints.
func (b *Bar) SetHints(hints []key.Binding) {
	b.hints = hints
}

// SetStats sets the graph totals.
func (b *Bar) SetStats(stats *driving.LoadStats) {
	b.stats = stats
}

// SetError shows err instead of the totals. A nil error clears it.
func (b *Bar) SetError(err error) {
	b.err = err
}

// Err returns the error currently shown.
func (b *Bar) Err() error {
	return b.err
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}
