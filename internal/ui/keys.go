package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Select   key.Binding
	Continue key.Binding
	Stop     key.Binding
	Scroll   key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Select: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6"),
			key.WithHelp("0-6", "choose"),
		),
		Continue: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Stop: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "stop"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("up", "down", "pgup", "pgdown", "j", "k"),
			key.WithHelp("↑/↓", "scroll"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// modeKeys implements help.KeyMap for the bindings active in one mode.
type modeKeys []key.Binding

func (k modeKeys) ShortHelp() []key.Binding  { return k }
func (k modeKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k} }

func (k keyMap) forMode(m mode) modeKeys {
	switch m {
	case modeRunning:
		return modeKeys{k.Stop, k.Scroll}
	case modeResult:
		return modeKeys{k.Continue, k.Scroll}
	}
	return modeKeys{k.Select, k.Quit}
}
