package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings of the terminal board.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Grab   key.Binding
	Status key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	View   key.Binding
	Filter key.Binding
	Back   key.Binding
	Quit   key.Binding

	// editor form
	Submit    key.Binding
	NextField key.Binding
	PrevField key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column")),
		Grab:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pick up/drop")),
		Status: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "next status")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		View:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "list/kanban")),
		Filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		NextField: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
	}
}

func (k KeyMap) boardHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Grab, k.Status, k.New, k.Edit, k.Delete, k.View, k.Filter, k.Quit}
}

func (k KeyMap) editorHelp() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.Submit, k.Back}
}
