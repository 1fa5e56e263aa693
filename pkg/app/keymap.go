package app

import (
	"github.com/charmbracelet/bubbles/key"
)

// applicationKeyMap holds the bindings that work on every screen.
type applicationKeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Reload    key.Binding
}

// DefaultKeyMap returns a default set of keybindings.
func DefaultKeyMap() applicationKeyMap {
	return applicationKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload config"),
		),
	}
}
