package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/config"
	"gitlab.com/tinyland/lab/boardtop/internal/format"
)

// Options menu rows: the refresh interval, then one show toggle per family
// in display order.
const optionRefresh = 0

func optionCount() int { return 1 + len(collectors.Families()) }

func optionZone(i int) string { return fmt.Sprintf("option-%d", i) }

func interfaceZone(name string) string { return "iface-" + name }

func (m Model) updateOptions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Close):
		m.mode = modeDashboard
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < optionCount()-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Next):
		m.activate(1)
	case key.Matches(msg, keys.Prev):
		m.activate(-1)
	case key.Matches(msg, keys.Interface):
		m.cycleInterface()
	}
	return m, nil
}

// activate applies the row under the cursor. On the refresh row dir picks
// the next or previous preset; on a family row it toggles the panel.
func (m *Model) activate(dir int) {
	if m.cursor == optionRefresh {
		next := m.cfg.NextRefresh()
		if dir < 0 {
			next = m.cfg.PrevRefresh()
		}
		m.setConfig(m.cfg.With(func(c *config.Config) { c.RefreshRate = config.Duration{Duration: next} }))
		return
	}
	f := collectors.Families()[m.cursor-1]
	m.setConfig(m.cfg.With(func(c *config.Config) { c.SetShown(f, !c.Shown(f)) }))
}

// cycleInterface selects the next network interface, wrapping around.
func (m *Model) cycleInterface() {
	if !m.cfg.ShowNetwork || m.network == nil {
		return
	}
	names := m.network.InterfaceNames()
	if len(names) == 0 {
		return
	}
	i := m.network.IndexOf(m.selectedInterface())
	m.selectInterface(names[(i+1)%len(names)])
}

func (m *Model) selectInterface(name string) {
	if name == m.cfg.SelectedNetworkInterface {
		return
	}
	m.setConfig(m.cfg.With(func(c *config.Config) { c.SelectedNetworkInterface = name }))
}

// clickOptions activates the option row or interface under a left click.
func (m Model) clickOptions(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	for i := range optionCount() {
		if m.zones.Get(optionZone(i)).InBounds(msg) {
			m.cursor = i
			m.activate(1)
			return m, nil
		}
	}
	if m.network != nil {
		for _, name := range m.network.InterfaceNames() {
			if m.zones.Get(interfaceZone(name)).InBounds(msg) {
				m.selectInterface(name)
				return m, nil
			}
		}
	}
	return m, nil
}

// renderOptions renders the options box.
func (m Model) renderOptions() string {
	row := func(i int, text string) string {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
			text = styleSelected.Render(text)
		}
		return m.zones.Mark(optionZone(i), fmt.Sprintf(" %s %s", cursor, text))
	}

	lines := []string{
		styleTitle.Render("Options"),
		"",
		row(optionRefresh, "Update Interval: "+format.Interval(m.cfg.RefreshRate.Duration)),
		"",
		" Metrics:",
	}

	for i, f := range collectors.Families() {
		status := "[ ]"
		if m.cfg.Shown(f) {
			status = "[x]"
		}
		text := status + " " + f.Title()
		if !slices.Contains(m.caps, f) {
			text += styleMuted.Render(" (unavailable)")
		}
		lines = append(lines, row(i+1, text))

		if f == collectors.FamilyNetwork && m.cfg.ShowNetwork && m.network != nil {
			selected := m.selectedInterface()
			for _, name := range m.network.InterfaceNames() {
				mark := " "
				if name == selected {
					mark = ">"
				}
				lines = append(lines, m.zones.Mark(interfaceZone(name), fmt.Sprintf("     %s %s", mark, name)))
			}
		}
	}

	return styleOptions.Render(strings.Join(lines, "\n"))
}
