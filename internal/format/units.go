// Package format provides shared formatting for sizes, rates and intervals
// shown on the dashboard.
package format

import (
	"fmt"
	"time"
)

// Bytes renders a byte count with binary units, e.g. "3.2 GiB".
func Bytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit && exp < 5; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// MHz renders a clock frequency, switching to GHz at 1000 MHz. Zero is
// shown as "N/A".
func MHz(mhz float64) string {
	switch {
	case mhz <= 0:
		return "N/A"
	case mhz >= 1000:
		return fmt.Sprintf("%.2f GHz", mhz/1000)
	default:
		return fmt.Sprintf("%.0f MHz", mhz)
	}
}

// Mbps renders a network rate, switching to Gbps at 1000 Mbps and Kbps
// below 1 Mbps.
func Mbps(rate float64) string {
	switch {
	case rate >= 1000:
		return fmt.Sprintf("%.2f Gbps", rate/1000)
	case rate >= 1:
		return fmt.Sprintf("%.1f Mbps", rate)
	case rate > 0:
		return fmt.Sprintf("%.0f Kbps", rate*1000)
	default:
		return "0 Kbps"
	}
}

// Interval renders a refresh interval as "500 ms" or "2 s".
func Interval(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d s", int(d/time.Second))
	}
	return fmt.Sprintf("%.1f s", d.Seconds())
}

// Truncate shortens a device or interface name to at most width runes,
// ending it with "…" when something was cut. Widths below 2 cut without
// the marker.
func Truncate(s string, width int) string {
	r := []rune(s)
	switch {
	case width <= 0:
		return ""
	case len(r) <= width:
		return s
	case width < 2:
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
