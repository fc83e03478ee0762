package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the composer key bindings.
type keyMap struct {
	Quit               key.Binding
	Help               key.Binding
	NextField          key.Binding
	PrevField          key.Binding
	Submit             key.Binding
	Regenerate         key.Binding
	RegenerateTitle    key.Binding
	RegenerateCategory key.Binding
	Publish            key.Binding
	ScrollUp           key.Binding
	ScrollDown         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "toggle help"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "generate"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "regenerate article"),
		),
		RegenerateTitle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "new title"),
		),
		RegenerateCategory: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "new category"),
		),
		Publish: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "post now"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Publish, k.RegenerateTitle, k.RegenerateCategory, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Regenerate, k.Publish},
		{k.RegenerateTitle, k.RegenerateCategory},
		{k.NextField, k.PrevField, k.ScrollUp, k.ScrollDown},
		{k.Help, k.Quit},
	}
}
