package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// runKeyMap holds the bindings of the run view.
type runKeyMap struct {
	Stop   key.Binding
	Switch key.Binding
	Scroll key.Binding
}

var runKeys = runKeyMap{
	Stop: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "stop run and quit"),
	),
	Switch: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "switch pane"),
	),
	// Handled by the updates viewport; listed for the help bar only.
	Scroll: key.NewBinding(
		key.WithKeys("j", "k", "up", "down"),
		key.WithHelp("j/k", "scroll updates"),
	),
}

// cancelKey leaves the settings form without saving.
var cancelKey = key.NewBinding(
	key.WithKeys("esc", "ctrl+c"),
	key.WithHelp("esc", "cancel"),
)

func (k runKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Switch, k.Scroll, k.Stop}
}

func (k runKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// HelpView returns the one-line help bar of the run view.
func HelpView() string {
	h := help.New()
	h.Styles.ShortKey = StyleHelp.Bold(true)
	h.Styles.ShortDesc = StyleHelp
	return h.View(runKeys)
}
