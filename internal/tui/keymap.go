package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard keyboard shortcuts. Table navigation
// keys are handled by the table component itself.
type KeyMap struct {
	Refresh   key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh:   bind("refresh", "r"),
		Quit:      bind("quit", "q", "esc"),
		ForceQuit: bind("force quit", "ctrl+c"),
	}
}

// bind builds a binding whose help label joins the key names with "/".
func bind(action string, keys ...string) key.Binding {
	label := ""
	for i, k := range keys {
		if i > 0 {
			label += "/"
		}
		label += helpLabel(k)
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, action))
}

func helpLabel(k string) string {
	switch k {
	case "esc":
		return "Esc"
	case "ctrl+c":
		return "Ctrl+C"
	default:
		return k
	}
}
