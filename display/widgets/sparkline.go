package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// levels holds the eighth-block runes used for sparklines and chart tops,
// ordered from lowest to highest. levels[0] is a blank cell.
var levels = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Scale maps samples onto a fixed or automatic vertical range.
type Scale struct {
	// Min and Max bound the range. When Max <= Min the range is derived from
	// the data, starting at zero.
	Min float64
	Max float64
}

// PercentScale is the fixed 0-100 range used for utilization streams.
var PercentScale = Scale{Min: 0, Max: 100}

// resolve returns the effective bounds for data.
func (s Scale) resolve(data []float64) (lo, hi float64) {
	if s.Max > s.Min {
		return s.Min, s.Max
	}
	hi = 0
	for _, v := range data {
		hi = max(hi, v)
	}
	if hi == 0 {
		hi = 1
	}
	return 0, hi
}

// fraction places v within [lo, hi], clamped to [0, 1].
func fraction(v, lo, hi float64) float64 {
	if hi <= lo || math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
}

// tail returns the last n samples of data, or all of them when shorter.
func tail(data []float64, n int) []float64 {
	if n <= 0 || n >= len(data) {
		return data
	}
	return data[len(data)-n:]
}

// Sparkline renders the most recent width samples as a single row of block
// characters, right-aligned so the newest sample sits at the right edge.
func Sparkline(data []float64, width int, scale Scale, color lipgloss.Color) string {
	if width <= 0 {
		width = len(data)
	}
	if width == 0 {
		return ""
	}
	data = tail(data, width)
	lo, hi := scale.resolve(data)

	var sb strings.Builder
	sb.Grow(width * 3)
	for range width - len(data) {
		sb.WriteRune(' ')
	}
	for _, v := range data {
		idx := int(math.Round(fraction(v, lo, hi) * float64(len(levels)-1)))
		// Non-zero samples always show at least the lowest block.
		if idx == 0 && v > lo {
			idx = 1
		}
		sb.WriteRune(levels[idx])
	}

	out := sb.String()
	if color != "" {
		out = lipgloss.NewStyle().Foreground(color).Render(out)
	}
	return out
}
