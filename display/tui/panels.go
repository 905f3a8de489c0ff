package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/config"
	"gitlab.com/tinyland/lab/boardtop/display/widgets"
	"gitlab.com/tinyland/lab/boardtop/internal/format"
)

const (
	minPanelHeight = 5
	maxPanelHeight = 12

	// gaugeLabelWidth is the " 100%" suffix widgets.Gauge appends.
	gaugeLabelWidth = 5
)

// panel is one dashboard slot. The list covers every family in display
// order and is rebuilt only when the configuration changes.
type panel struct {
	family  collectors.Family
	enabled bool
}

// buildPanels enables a family when it is shown in cfg and has a source.
func buildPanels(cfg config.Config, caps []collectors.Family) []panel {
	families := collectors.Families()
	panels := make([]panel, len(families))
	for i, f := range families {
		panels[i] = panel{family: f, enabled: cfg.Shown(f) && slices.Contains(caps, f)}
	}
	return panels
}

// Optional detail accessors, checked on the usage reader of a family.
type (
	coreFrequencies interface {
		CoreCount() int
		FrequenciesMHz() []float64
	}
	modelNamer interface {
		Model() string
	}
	deviceNamer interface {
		Name() string
	}
	frequency interface {
		FrequencyMHz() float64
	}
	memoryBytes interface {
		UsedBytes() uint64
		TotalBytes() uint64
	}
	deviceMemory interface {
		MemoryBytes() (used, total uint64)
	}
)

// renderPanels stacks the enabled panels into height rows.
func (m Model) renderPanels(height int) string {
	var enabled []panel
	for _, p := range m.panels {
		if p.enabled {
			enabled = append(enabled, p)
		}
	}
	if len(enabled) == 0 {
		return styleMuted.Render("No metrics enabled. Press o for options.")
	}

	layout := LayoutForSize(DetectLayout(m.width), m.width)
	each := min(max(height/layout.Rows(len(enabled)), minPanelHeight), maxPanelHeight)

	blocks := make([]string, 0, len(enabled))
	for _, p := range enabled {
		if p.family == collectors.FamilyNetwork {
			blocks = append(blocks, m.renderNetwork(layout, each))
			continue
		}
		blocks = append(blocks, m.renderUsage(p.family, layout, each))
	}
	return layout.grid(blocks)
}

// renderUsage draws a title, a utilization chart and an info line.
func (m Model) renderUsage(f collectors.Family, layout LayoutConfig, height int) string {
	r, ok := m.metrics.Usage(f)
	if !ok {
		return styleMuted.Render(f.Title() + ": unavailable")
	}

	usage := r.Usage()
	if layout.Compact {
		lines := []string{
			styleTitle.Render(usageTitle(f, r)),
			widgets.Gauge(usage, max(layout.PanelWidth-gaugeLabelWidth, 1), widgets.DefaultThresholds),
			widgets.Sparkline(r.UsageHistory(), layout.PanelWidth, widgets.PercentScale, familyColors[f]),
		}
		return strings.Join(lines, "\n") + "\n"
	}

	title := styleTitle.Render(usageTitle(f, r)) + " " +
		lipgloss.NewStyle().Foreground(widgets.DefaultThresholds.Color(usage)).Render(fmt.Sprintf("%.0f%%", usage))

	cc := widgets.ChartConfig{
		Data:   r.UsageHistory(),
		Width:  layout.PanelWidth,
		Height: max(height-3, 1),
		Scale:  widgets.PercentScale,
		Color:  familyColors[f],
	}
	if layout.AxisLabels {
		cc.AxisLabel = func(v float64) string { return fmt.Sprintf("%.0f%%", v) }
	}
	chart := widgets.RenderChart(cc)

	lines := []string{title, chart}
	if info := usageInfo(r); info != "" {
		lines = append(lines, styleInfo.Render(info))
	}
	return strings.Join(lines, "\n") + "\n"
}

// usageTitle names the panel, adding device detail when the reader has it.
func usageTitle(f collectors.Family, r collectors.UsageReader) string {
	title := f.Title()
	switch v := r.(type) {
	case coreFrequencies:
		title = fmt.Sprintf("%s - %d cores", title, v.CoreCount())
	case modelNamer:
		if name := v.Model(); name != "" {
			title = fmt.Sprintf("%s - %s", title, format.Truncate(name, 40))
		}
	case deviceNamer:
		if name := v.Name(); name != "" {
			title = fmt.Sprintf("%s - %s", title, format.Truncate(name, 40))
		}
	}
	return title
}

// usageInfo returns the line under the chart: frequency or memory size.
func usageInfo(r collectors.UsageReader) string {
	switch v := r.(type) {
	case coreFrequencies:
		return "Frequency: " + coreFrequencyText(v.FrequenciesMHz())
	case frequency:
		return "Frequency: " + format.MHz(v.FrequencyMHz())
	case memoryBytes:
		return fmt.Sprintf("Used: %s / %s", format.Bytes(v.UsedBytes()), format.Bytes(v.TotalBytes()))
	case deviceMemory:
		used, total := v.MemoryBytes()
		if total == 0 {
			return ""
		}
		return fmt.Sprintf("Memory: %s / %s", format.Bytes(used), format.Bytes(total))
	}
	return ""
}

// coreFrequencyText summarizes per-core clocks as a single value when all
// cores agree and as a range otherwise.
func coreFrequencyText(freqs []float64) string {
	switch {
	case len(freqs) == 0:
		return "N/A"
	case len(freqs) == 1:
		return format.MHz(freqs[0])
	}
	lo, hi := slices.Min(freqs), slices.Max(freqs)
	if lo == hi {
		return format.MHz(lo) + " (all cores)"
	}
	return fmt.Sprintf("%s - %s", format.MHz(lo), format.MHz(hi))
}

// selectedInterface returns the configured interface, falling back to the
// first known one. It returns "" when there are none.
func (m Model) selectedInterface() string {
	if m.network == nil {
		return ""
	}
	names := m.network.InterfaceNames()
	if len(names) == 0 {
		return ""
	}
	if m.network.IndexOf(m.cfg.SelectedNetworkInterface) >= 0 {
		return m.cfg.SelectedNetworkInterface
	}
	return names[0]
}

// renderNetwork draws receive and transmit charts for the selected
// interface.
func (m Model) renderNetwork(layout LayoutConfig, height int) string {
	name := m.selectedInterface()
	if name == "" {
		return styleTitle.Render("Network") + "\n" + styleMuted.Render("no interfaces") + "\n"
	}
	rx, tx, _ := m.network.Rates(name)
	info := fmt.Sprintf("↓ RX %s   ↑ TX %s", format.Mbps(last(rx)), format.Mbps(last(tx)))
	color := familyColors[collectors.FamilyNetwork]

	if layout.Compact {
		return strings.Join([]string{
			styleTitle.Render("Network - " + name),
			widgets.Sparkline(rx, layout.PanelWidth, widgets.Scale{}, color),
			widgets.Sparkline(tx, layout.PanelWidth, widgets.Scale{}, colorPrimary),
			styleInfo.Render(info),
		}, "\n") + "\n"
	}

	rows := max(height-3, 2)
	rxRows := rows / 2
	var label func(float64) string
	if layout.AxisLabels {
		label = format.Mbps
	}

	rxChart := widgets.RenderChart(widgets.ChartConfig{
		Data: rx, Width: layout.PanelWidth, Height: rxRows, Color: color, AxisLabel: label,
	})
	txChart := widgets.RenderChart(widgets.ChartConfig{
		Data: tx, Width: layout.PanelWidth, Height: rows - rxRows, Color: colorPrimary, AxisLabel: label,
	})

	return strings.Join([]string{
		styleTitle.Render("Network - " + name),
		rxChart,
		txChart,
		styleInfo.Render(info),
	}, "\n") + "\n"
}

func last(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}
