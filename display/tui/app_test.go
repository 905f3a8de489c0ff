package tui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/config"
)

// isQuitCmd executes a tea.Cmd and returns true if it produces a tea.QuitMsg.
func isQuitCmd(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	msg := cmd()
	_, ok := msg.(tea.QuitMsg)
	return ok
}

type fakeReader struct {
	usage   float64
	history []float64
}

func (r fakeReader) Usage() float64          { return r.usage }
func (r fakeReader) UsageHistory() []float64 { return r.history }

type fakeMetrics struct {
	caps    []collectors.Family
	readers map[collectors.Family]collectors.UsageReader
	err     error
	updates int
}

func (f *fakeMetrics) Update(context.Context) error {
	f.updates++
	return f.err
}

func (f *fakeMetrics) Capabilities() []collectors.Family { return f.caps }

func (f *fakeMetrics) Usage(fam collectors.Family) (collectors.UsageReader, bool) {
	r, ok := f.readers[fam]
	return r, ok
}

type fakeNetwork struct {
	names []string
	rx    map[string][]float64
}

func (n *fakeNetwork) InterfaceNames() []string { return n.names }

func (n *fakeNetwork) IndexOf(name string) int { return slices.Index(n.names, name) }

func (n *fakeNetwork) Rates(name string) (rx, tx []float64, ok bool) {
	if n.IndexOf(name) < 0 {
		return nil, nil, false
	}
	return n.rx[name], nil, true
}

// fakeClock advances by one second on every read so consecutive key presses
// are never treated as repeats unless a test says otherwise.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

type harness struct {
	metrics *fakeMetrics
	network *fakeNetwork
	clock   *fakeClock
	saved   []config.Config
}

func newHarness() *harness {
	return &harness{
		metrics: &fakeMetrics{
			caps: []collectors.Family{collectors.FamilyCPU, collectors.FamilyMemory, collectors.FamilyNetwork},
			readers: map[collectors.Family]collectors.UsageReader{
				collectors.FamilyCPU:    fakeReader{usage: 42, history: []float64{10, 42}},
				collectors.FamilyMemory: fakeReader{usage: 60, history: []float64{60}},
			},
		},
		network: &fakeNetwork{names: []string{"eth0", "wlan0"}},
		clock:   &fakeClock{t: time.Unix(1_700_000_000, 0), step: time.Second},
	}
}

func (h *harness) model() Model {
	return New(Options{
		Metrics: h.metrics,
		Network: h.network,
		Config:  config.DefaultConfig(),
		Save: func(c config.Config) error {
			h.saved = append(h.saved, c)
			return nil
		},
		Now: h.clock.now,
	})
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

var (
	keyO     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}}
	keyQ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEscape}
)

func enabledFamilies(m Model) []collectors.Family {
	var out []collectors.Family
	for _, p := range m.panels {
		if p.enabled {
			out = append(out, p.family)
		}
	}
	return out
}

func TestNew_PanelsFollowCapabilities(t *testing.T) {
	m := newHarness().model()

	if len(m.panels) != len(collectors.Families()) {
		t.Fatalf("panels = %d, want one per family", len(m.panels))
	}
	want := []collectors.Family{collectors.FamilyCPU, collectors.FamilyMemory, collectors.FamilyNetwork}
	if got := enabledFamilies(m); !slices.Equal(got, want) {
		t.Errorf("enabled = %v, want %v", got, want)
	}
}

func TestModel_Init(t *testing.T) {
	if cmd := newHarness().model().Init(); cmd == nil {
		t.Error("expected Init() to schedule a tick")
	}
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"q", keyQ},
		{"esc", keyEsc},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cmd := newHarness().model().Update(tt.msg)
			if !isQuitCmd(cmd) {
				t.Errorf("expected %s to produce tea.Quit", tt.name)
			}
		})
	}
}

func TestModel_CtrlCQuitsFromOptions(t *testing.T) {
	m := send(t, newHarness().model(), keyO)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuitCmd(cmd) {
		t.Error("expected ctrl+c to quit from the options menu")
	}
}

func TestModel_Tick(t *testing.T) {
	h := newHarness()
	m := h.model()

	updated, cmd := m.Update(tickMsg(time.Now()))
	m = updated.(Model)
	if h.metrics.updates != 1 {
		t.Errorf("updates = %d, want 1", h.metrics.updates)
	}
	if cmd == nil {
		t.Error("expected the next tick to be scheduled")
	}
	if !m.refreshed {
		t.Error("expected the activity flag to flip")
	}

	h.metrics.err = errors.New("platform: boom")
	m = send(t, m, tickMsg(time.Now()))
	if m.updateErr == nil {
		t.Error("expected update error to be kept for the footer")
	}

	h.metrics.err = nil
	m = send(t, m, tickMsg(time.Now()))
	if m.updateErr != nil {
		t.Errorf("updateErr = %v after a clean pass, want nil", m.updateErr)
	}
}

func TestOptions_OpenAndClose(t *testing.T) {
	m := send(t, newHarness().model(), keyO)
	if m.mode != modeOptions {
		t.Fatal("expected options mode after 'o'")
	}
	m = send(t, m, keyEsc)
	if m.mode != modeDashboard {
		t.Error("expected esc to close the options menu")
	}
	m = send(t, m, keyO, keyO)
	if m.mode != modeDashboard {
		t.Error("expected 'o' to close the options menu")
	}
}

func TestOptions_ToggleFamily(t *testing.T) {
	h := newHarness()
	m := send(t, h.model(), keyO, keyDown, keyEnter)

	if m.cfg.ShowCPU {
		t.Error("expected CPU to be hidden after toggling")
	}
	if len(h.saved) != 1 || h.saved[0].ShowCPU {
		t.Fatalf("saved = %+v, want one save with CPU hidden", h.saved)
	}
	want := []collectors.Family{collectors.FamilyMemory, collectors.FamilyNetwork}
	if got := enabledFamilies(m); !slices.Equal(got, want) {
		t.Errorf("enabled = %v, want %v", got, want)
	}

	m = send(t, m, keyEnter)
	if !m.cfg.ShowCPU || len(h.saved) != 2 {
		t.Error("expected a second toggle to show CPU again and save")
	}
}

func TestOptions_ToggleUnavailableFamilyStaysDisabled(t *testing.T) {
	h := newHarness()
	m := h.model()
	m.cfg.ShowGPU = false

	// GPU is the fourth family; its row is index 4.
	m = send(t, m, keyO, keyDown, keyDown, keyDown, keyDown, keyEnter)
	if m.cursor != 4 {
		t.Fatalf("cursor = %d, want 4", m.cursor)
	}
	if !m.cfg.ShowGPU {
		t.Error("expected GPU to be shown in the config")
	}
	if slices.Contains(enabledFamilies(m), collectors.FamilyGPU) {
		t.Error("GPU has no source and must not get a panel")
	}
}

func TestOptions_CursorBounds(t *testing.T) {
	m := send(t, newHarness().model(), keyO, keyUp)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	for range optionCount() + 3 {
		m = send(t, m, keyDown)
	}
	if m.cursor != optionCount()-1 {
		t.Errorf("cursor = %d, want %d", m.cursor, optionCount()-1)
	}
}

func TestOptions_CycleRefresh(t *testing.T) {
	h := newHarness()
	m := send(t, h.model(), keyO, keyEnter)
	if got := m.cfg.RefreshRate.Duration; got != 2*time.Second {
		t.Errorf("refresh = %v, want 2s", got)
	}
	m = send(t, m, keyLeft, keyLeft)
	if got := m.cfg.RefreshRate.Duration; got != 500*time.Millisecond {
		t.Errorf("refresh = %v, want 500ms", got)
	}
	if len(h.saved) != 3 {
		t.Errorf("saves = %d, want 3", len(h.saved))
	}
}

func TestOptions_CycleInterface(t *testing.T) {
	h := newHarness()
	m := send(t, h.model(), keyO)
	if got := m.selectedInterface(); got != "eth0" {
		t.Fatalf("default interface = %q, want eth0", got)
	}

	m = send(t, m, keyTab)
	if m.cfg.SelectedNetworkInterface != "wlan0" {
		t.Errorf("selected = %q, want wlan0", m.cfg.SelectedNetworkInterface)
	}
	m = send(t, m, keyTab)
	if m.cfg.SelectedNetworkInterface != "eth0" {
		t.Errorf("selected = %q, want eth0 after wrapping", m.cfg.SelectedNetworkInterface)
	}
	if len(h.saved) != 2 {
		t.Errorf("saves = %d, want 2", len(h.saved))
	}
}

func TestOptions_CycleInterfaceNeedsNetworkShown(t *testing.T) {
	h := newHarness()
	m := h.model()
	m.cfg.ShowNetwork = false
	m = send(t, m, keyO, keyTab)
	if m.cfg.SelectedNetworkInterface != "" || len(h.saved) != 0 {
		t.Error("expected tab to do nothing with the network panel hidden")
	}
}

func TestOptions_SaveError(t *testing.T) {
	h := newHarness()
	m := New(Options{
		Metrics: h.metrics,
		Config:  config.DefaultConfig(),
		Save:    func(config.Config) error { return errors.New("read-only file system") },
		Now:     h.clock.now,
	})
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40}, keyO, keyDown, keyEnter)

	if m.saveErr == nil {
		t.Fatal("expected save error to be kept")
	}
	if m.cfg.ShowCPU {
		t.Error("expected the change to apply even when saving fails")
	}
	if !strings.Contains(m.View(), "read-only file system") {
		t.Error("expected the save error in the footer")
	}
}

func TestRepeatedKeySuppressed(t *testing.T) {
	h := newHarness()
	h.clock.step = 50 * time.Millisecond
	m := send(t, h.model(), keyO, keyDown, keyDown)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1; the second press is a repeat", m.cursor)
	}

	h.clock.step = 300 * time.Millisecond
	m = send(t, m, keyDown)
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 after the repeat window", m.cursor)
	}
}

func TestMouseIgnoredOutsideLeftRelease(t *testing.T) {
	h := newHarness()
	m := send(t, h.model(), keyO)
	m = send(t, m, tea.MouseMsg{Action: tea.MouseActionMotion, Button: tea.MouseButtonNone})
	if len(h.saved) != 0 {
		t.Error("mouse motion must not change settings")
	}
}

func TestModel_View(t *testing.T) {
	m := newHarness().model()
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View before size = %q", got)
	}

	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	for _, want := range []string{"available metrics: cpu, memory, network", "CPU", "42%", "Memory", "Network - eth0"} {
		if !strings.Contains(view, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}

	m = send(t, m, keyO)
	view = m.View()
	for _, want := range []string{"Update Interval: 1 s", "[x] CPU", "(unavailable)", "wlan0"} {
		if !strings.Contains(view, want) {
			t.Errorf("options view missing %q", want)
		}
	}
}

func TestModel_ViewNoCapabilities(t *testing.T) {
	h := newHarness()
	h.metrics.caps = nil
	m := send(t, h.model(), tea.WindowSizeMsg{Width: 80, Height: 24})
	view := m.View()
	if !strings.Contains(view, "available metrics: none") {
		t.Error("expected 'none' in the header")
	}
	if !strings.Contains(view, "No metrics enabled") {
		t.Error("expected the empty dashboard hint")
	}
}
