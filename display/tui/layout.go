package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LayoutSize represents a responsive breakpoint for terminal width.
type LayoutSize int

const (
	// LayoutCompact is used for terminals narrower than 60 characters.
	LayoutCompact LayoutSize = iota
	// LayoutNormal is used for terminals between 60 and 120 characters wide.
	LayoutNormal
	// LayoutWide is used for terminals wider than 120 characters.
	LayoutWide
)

// DetectLayout returns the appropriate LayoutSize for the given terminal width.
func DetectLayout(width int) LayoutSize {
	switch {
	case width < 60:
		return LayoutCompact
	case width <= 120:
		return LayoutNormal
	default:
		return LayoutWide
	}
}

// LayoutConfig holds the panel grid for a terminal width.
type LayoutConfig struct {
	// Columns is the number of panels placed side by side.
	Columns int
	// PanelWidth is the character width of one panel.
	PanelWidth int
	// AxisLabels controls whether charts carry a scale on the left.
	AxisLabels bool
	// Compact replaces charts with a gauge and a one-row sparkline.
	Compact bool
}

// columnGap separates panels in the same row.
const columnGap = 2

// LayoutForSize returns a LayoutConfig appropriate for the given size and width.
func LayoutForSize(size LayoutSize, width int) LayoutConfig {
	width = max(width, 20)
	switch size {
	case LayoutCompact:
		return LayoutConfig{Columns: 1, PanelWidth: width, Compact: true}
	case LayoutWide:
		return LayoutConfig{Columns: 2, PanelWidth: (width - columnGap) / 2, AxisLabels: true}
	default: // LayoutNormal
		return LayoutConfig{Columns: 1, PanelWidth: width, AxisLabels: true}
	}
}

// Rows returns how many grid rows n panels occupy.
func (c LayoutConfig) Rows(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + c.Columns - 1) / c.Columns
}

// grid places blocks row by row, c.Columns per row.
func (c LayoutConfig) grid(blocks []string) string {
	if c.Columns <= 1 {
		return lipgloss.JoinVertical(lipgloss.Left, blocks...)
	}
	gap := strings.Repeat(" ", columnGap)
	rows := make([]string, 0, c.Rows(len(blocks)))
	for i := 0; i < len(blocks); i += c.Columns {
		end := min(i+c.Columns, len(blocks))
		row := make([]string, 0, 2*(end-i))
		for j := i; j < end; j++ {
			if j > i {
				row = append(row, gap)
			}
			row = append(row, lipgloss.NewStyle().Width(c.PanelWidth).Render(blocks[j]))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
