package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
)

// RepeatDelay is the window in which a repeated key press is ignored.
const RepeatDelay = 200 * time.Millisecond

// RepeatSuppressed reports whether a press of k at now repeats the previous
// press of lastKey at lastAt closely enough to be ignored. A clock that went
// backwards never suppresses.
func RepeatSuppressed(lastKey string, lastAt time.Time, k string, now time.Time) bool {
	if k != lastKey || lastAt.IsZero() {
		return false
	}
	d := now.Sub(lastAt)
	return d >= 0 && d < RepeatDelay
}

// keyMap defines all key bindings for the dashboard and the options menu.
type keyMap struct {
	Quit      key.Binding
	Options   key.Binding
	Close     key.Binding
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Prev      key.Binding
	Next      key.Binding
	Interface key.Binding
	Help      key.Binding
}

// ShortHelp returns the bindings shown in the dashboard footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Options, k.Help, k.Quit}
}

// FullHelp returns the expanded keybinding groups shown when help is toggled.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Options, k.Help, k.Quit},
		{k.Up, k.Down, k.Toggle, k.Prev, k.Next, k.Interface, k.Close},
	}
}

// optionsHelp returns the bindings shown while the options menu is open.
func (k keyMap) optionsHelp() []key.Binding {
	return []key.Binding{k.Close, k.Up, k.Down, k.Toggle, k.Interface}
}

// keys holds the default key bindings used by the application.
var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "Q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	Options:   key.NewBinding(key.WithKeys("o", "O"), key.WithHelp("o", "options")),
	Close:     key.NewBinding(key.WithKeys("o", "O", "esc"), key.WithHelp("o/esc", "close")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle")),
	Prev:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "previous")),
	Next:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next")),
	Interface: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "interface")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Bindings returns every distinct key binding, dashboard keys first.
func Bindings() []key.Binding {
	return []key.Binding{
		keys.Options, keys.Help, keys.Quit,
		keys.Up, keys.Down, keys.Toggle, keys.Prev, keys.Next, keys.Interface, keys.Close,
	}
}
