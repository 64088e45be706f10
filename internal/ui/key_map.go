package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Browse views use up/down/enter/back; the playback view takes over h/j/k/l
// for transport and volume, so list navigation there is arrow-only.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	enter  key.Binding
	back   key.Binding
	quit   key.Binding
	toggle key.Binding
	next   key.Binding
	prev   key.Binding
	volUp  key.Binding
	volDn  key.Binding
	shufl  key.Binding
	help   key.Binding
	exit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:   key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q/esc", "back")),
		quit:   key.NewBinding(key.WithKeys("x", "ctrl+c"), key.WithHelp("x", "quit")),
		toggle: key.NewBinding(key.WithKeys("enter", "p"), key.WithHelp("enter/p", "play/pause")),
		next:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next")),
		prev:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "previous")),
		volUp:  key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "volume up")),
		volDn:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "volume down")),
		shufl:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		exit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.help, k.back, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.next, k.prev},
		{k.volUp, k.volDn, k.shufl},
		{k.help, k.back, k.quit},
	}
}
