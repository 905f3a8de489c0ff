package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ChartConfig controls a multi-row time-series area chart.
type ChartConfig struct {
	// Data points to render (most recent last).
	Data []float64
	// Width is the total character width including the axis labels.
	Width int
	// Height is the number of rows. Values below 1 render a single row.
	Height int
	// Scale sets the vertical range.
	Scale Scale
	// Color is the lipgloss color for the plotted area.
	Color lipgloss.Color
	// AxisLabel formats the top and bottom axis values. Nil hides the axis.
	AxisLabel func(v float64) string
}

// RenderChart draws the newest samples that fit the plot width as filled
// columns, each row adding eight vertical steps of resolution. The newest
// sample is in the rightmost column.
func RenderChart(cfg ChartConfig) string {
	height := max(cfg.Height, 1)
	width := max(cfg.Width, 1)

	var top, bottom string
	axisWidth := 0
	if cfg.AxisLabel != nil {
		lo, hi := cfg.Scale.resolve(tail(cfg.Data, width))
		top, bottom = cfg.AxisLabel(hi), cfg.AxisLabel(lo)
		axisWidth = max(lipgloss.Width(top), lipgloss.Width(bottom)) + 1
	}

	plotWidth := max(width-axisWidth, 1)
	data := tail(cfg.Data, plotWidth)
	lo, hi := cfg.Scale.resolve(data)

	steps := height * (len(levels) - 1)
	units := make([]int, len(data))
	for i, v := range data {
		units[i] = int(math.Round(fraction(v, lo, hi) * float64(steps)))
		if units[i] == 0 && v > lo {
			units[i] = 1
		}
	}

	style := lipgloss.NewStyle().Foreground(cfg.Color)
	axisStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	pad := plotWidth - len(data)

	rows := make([]string, height)
	var sb strings.Builder
	for r := range height {
		sb.Reset()
		base := (height - 1 - r) * (len(levels) - 1)
		for range pad {
			sb.WriteRune(' ')
		}
		for _, u := range units {
			fill := u - base
			switch {
			case fill <= 0:
				sb.WriteRune(levels[0])
			case fill >= len(levels)-1:
				sb.WriteRune(levels[len(levels)-1])
			default:
				sb.WriteRune(levels[fill])
			}
		}
		row := sb.String()
		if cfg.Color != "" {
			row = style.Render(row)
		}

		if axisWidth > 0 {
			var label string
			switch r {
			case 0:
				label = top
			case height - 1:
				label = bottom
			}
			label = strings.Repeat(" ", axisWidth-1-lipgloss.Width(label)) + label
			row = axisStyle.Render(label+"┤") + row
		}
		rows[r] = row
	}
	return strings.Join(rows, "\n")
}
