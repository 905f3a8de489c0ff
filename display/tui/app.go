// Package tui is the interactive dashboard: one chart panel per enabled
// metric family and an options menu whose changes are saved to the config
// file.
package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/generic"
	"gitlab.com/tinyland/lab/boardtop/config"
)

// Metrics is the compositor surface the dashboard reads.
type Metrics interface {
	Update(ctx context.Context) error
	Capabilities() []collectors.Family
	Usage(f collectors.Family) (collectors.UsageReader, bool)
}

// Network lists interfaces and their rate histories in megabits per second.
type Network interface {
	InterfaceNames() []string
	IndexOf(name string) int
	Rates(name string) (rx, tx []float64, ok bool)
}

type genericNetwork struct{ n *generic.Network }

// NetworkOf adapts the generic network collector. It returns nil for a nil
// collector.
func NetworkOf(n *generic.Network) Network {
	if n == nil {
		return nil
	}
	return genericNetwork{n}
}

func (g genericNetwork) InterfaceNames() []string { return g.n.InterfaceNames() }
func (g genericNetwork) IndexOf(name string) int  { return g.n.IndexOf(name) }

func (g genericNetwork) Rates(name string) (rx, tx []float64, ok bool) {
	iface, ok := g.n.Interface(name)
	if !ok {
		return nil, nil, false
	}
	return iface.RxHistory(), iface.TxHistory(), true
}

type mode int

const (
	modeDashboard mode = iota
	modeOptions
)

// tickMsg triggers one update pass.
type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Options configures New.
type Options struct {
	Metrics Metrics
	// Network may be nil when no interface source exists.
	Network Network
	Config  config.Config
	Logger  *slog.Logger
	// Save persists configuration edits. Nil uses config.Config.Save.
	Save func(config.Config) error
	// Now overrides the clock used for key-repeat suppression.
	Now func() time.Time
	// Context is passed to every update pass. Nil uses context.Background.
	Context context.Context
}

// Model is the top-level Bubbletea model for the dashboard.
type Model struct {
	metrics Metrics
	network Network
	cfg     config.Config
	caps    []collectors.Family
	panels  []panel

	mode   mode
	cursor int

	width  int
	height int
	ready  bool

	help      help.Model
	lastKey   string
	lastKeyAt time.Time
	refreshed bool
	updateErr error
	saveErr   error

	zones  *zone.Manager
	save   func(config.Config) error
	now    func() time.Time
	ctx    context.Context
	logger *slog.Logger
}

// New returns a dashboard over opts.Metrics. Capabilities are read once;
// the compositor fixes its sources at construction.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	save := opts.Save
	if save == nil {
		save = config.Config.Save
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	caps := opts.Metrics.Capabilities()
	return Model{
		metrics: opts.Metrics,
		network: opts.Network,
		cfg:     opts.Config,
		caps:    caps,
		panels:  buildPanels(opts.Config, caps),
		help:    help.New(),
		zones:   zone.New(),
		save:    save,
		now:     now,
		ctx:     ctx,
		logger:  logger.With("component", "tui"),
	}
}

// Config returns the current configuration snapshot.
func (m Model) Config() config.Config { return m.cfg }

// Init implements tea.Model. It schedules the first tick.
func (m Model) Init() tea.Cmd {
	return tick(m.cfg.RefreshRate.Duration)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if err := m.metrics.Update(m.ctx); err != nil {
			m.logger.Warn("update failed", "error", err)
			m.updateErr = err
		} else {
			m.updateErr = nil
		}
		m.refreshed = !m.refreshed
		return m, tick(m.cfg.RefreshRate.Duration)

	case tea.KeyMsg:
		k := msg.String()
		now := m.now()
		if RepeatSuppressed(m.lastKey, m.lastKeyAt, k, now) {
			return m, nil
		}
		m.lastKey, m.lastKeyAt = k, now
		if k == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode == modeOptions {
			return m.updateOptions(msg)
		}
		return m.updateDashboard(msg)

	case tea.MouseMsg:
		if m.mode == modeOptions {
			return m.clickOptions(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
	}

	return m, nil
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Options):
		m.mode = modeOptions
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// setConfig replaces the configuration snapshot, rebuilds the panel list
// and persists the result.
func (m *Model) setConfig(next config.Config) {
	m.cfg = next
	m.panels = buildPanels(next, m.caps)
	if err := m.save(next); err != nil {
		m.logger.Warn("saving config failed", "path", next.Path(), "error", err)
		m.saveErr = err
		return
	}
	m.saveErr = nil
}

// View implements tea.Model. It renders the header, the panels or the
// options menu, and the footer.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	var body string
	if m.mode == modeOptions {
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderOptions())
	} else {
		body = m.renderPanels(bodyHeight)
	}

	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))
}

// renderHeader renders the title, the activity dot and the list of
// available metric families.
func (m Model) renderHeader() string {
	dot := styleMuted.Render("•")
	if m.refreshed {
		dot = lipgloss.NewStyle().Foreground(colorSuccess).Render("•")
	}

	names := make([]string, len(m.caps))
	for i, f := range m.caps {
		names[i] = f.String()
	}
	available := "none"
	if len(names) > 0 {
		available = strings.Join(names, ", ")
	}

	line := styleBrand.Render("boardtop") + " " + dot + " " +
		styleMuted.Render("available metrics: ") + available
	return styleHeader.Width(m.width).Render(line)
}

// renderFooter renders the key help and the latest error, if any.
func (m Model) renderFooter() string {
	helpView := m.help.View(keys)
	if m.mode == modeOptions {
		helpView = m.help.ShortHelpView(keys.optionsHelp())
	}

	lines := []string{helpView}
	if m.updateErr != nil {
		lines = append(lines, styleError.Render("update failed: "+m.updateErr.Error()))
	}
	if m.saveErr != nil {
		lines = append(lines, styleError.Render("save failed: "+m.saveErr.Error()))
	}
	return styleFooter.Width(m.width).Render(strings.Join(lines, "\n"))
}
