package monitor

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the live monitor.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Home    key.Binding
	Pause   key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("j/k", "scroll"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/k", "scroll"),
	),
	Home: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "top"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p", "pause"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// footerBindings are listed in the footer, in order.
func (k KeyMap) footerBindings() []key.Binding {
	return []key.Binding{k.Quit, k.Down, k.Pause, k.Refresh}
}
