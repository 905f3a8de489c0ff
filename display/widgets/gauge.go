package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Load colors shared by gauges and panel titles.
const (
	colorOK      = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#EAB308")
	colorDanger  = lipgloss.Color("#EF4444")
)

// Thresholds are the utilization percentages at which a gauge changes color.
type Thresholds struct {
	Warning float64
	Danger  float64
}

// DefaultThresholds turns yellow at 70% and red at 90%.
var DefaultThresholds = Thresholds{Warning: 70, Danger: 90}

// Color returns the load color for percent.
func (t Thresholds) Color(percent float64) lipgloss.Color {
	switch {
	case percent >= t.Danger:
		return colorDanger
	case percent >= t.Warning:
		return colorWarning
	default:
		return colorOK
	}
}

// Gauge renders a horizontal bar of the given width followed by the
// percentage, e.g. "██████░░░░  60%". Percent is clamped to 0-100.
func Gauge(percent float64, width int, t Thresholds) string {
	if math.IsNaN(percent) {
		percent = 0
	}
	percent = math.Max(0, math.Min(100, percent))
	if width <= 0 {
		width = 20
	}

	filled := int(math.Round(percent / 100 * float64(width)))
	bar := lipgloss.NewStyle().Foreground(t.Color(percent)).Render(strings.Repeat("█", filled)) +
		strings.Repeat("░", width-filled)

	return fmt.Sprintf("%s %3.0f%%", bar, percent)
}
