package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"mcpgate/config"
)

type keyMap struct {
	Run      key.Binding
	Copy     key.Binding
	Clear    key.Binding
	Explain  key.Binding
	Complete key.Binding
	Switch   key.Binding
	Quit     key.Binding
}

func newKeyMap(kb *config.KeyBindingsConfig) keyMap {
	if kb == nil {
		kb = config.DefaultKeybindings()
	}

	bind := func(action, desc string) key.Binding {
		return key.NewBinding(
			key.WithKeys(kb.GetActionKey(action)),
			key.WithHelp(kb.DisplayActionKey(action), desc),
		)
	}

	return keyMap{
		Run:      bind("run_tool", "Run"),
		Copy:     bind("copy_last_reply", "Copy reply"),
		Clear:    bind("clear_history", "Clear"),
		Explain:  bind("explain", "Explain"),
		Complete: bind("complete", "Complete"),
		Switch:   bind("switch_field", "Switch field"),
		// ctrl+c always quits
		Quit: key.NewBinding(
			key.WithKeys(kb.GetActionKey("quit"), "ctrl+c"),
			key.WithHelp(kb.DisplayActionKey("quit"), "Quit"),
		),
	}
}

// footer lists the bindings as alternating key/description pairs.
func (k keyMap) footer(withExplain bool) []string {
	bindings := []key.Binding{k.Run, k.Complete, k.Copy, k.Clear}
	if withExplain {
		bindings = append(bindings, k.Explain)
	}
	bindings = append(bindings, k.Quit)

	parts := make([]string, 0, len(bindings)*2)
	for _, b := range bindings {
		parts = append(parts, b.Help().Key, b.Help().Desc)
	}
	return parts
}
