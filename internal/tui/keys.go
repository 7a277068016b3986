package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap binds every roster action. Bindings whose action the policy
// denies for the selected target are ignored and omitted from help.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Search   key.Binding
	Refresh  key.Binding
	Add      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Promote  key.Binding
	Demote   key.Binding
	Password key.Binding
	Quit     key.Binding
	Back     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add user")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Promote:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "promote")),
		Demote:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "demote")),
		Password: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "password")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}
