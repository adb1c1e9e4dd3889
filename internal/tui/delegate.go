package tui

import (
	"github.com/brizzai/mcp-openapi-hub/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type delegateKeyMap struct {
	remove  key.Binding
	restore key.Binding
}

func newDelegateKeyMap() *delegateKeyMap {
	return &delegateKeyMap{
		remove: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "Remove/keep tool"),
		),
		restore: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Restore description"),
		),
	}
}

func (d delegateKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{d.remove, d.restore}
}

func (d delegateKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{d.ShortHelp()}
}

// newItemDelegate renders operation items and applies the per-item key bindings
func newItemDelegate(keys *delegateKeyMap) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.UpdateFunc = func(msg tea.Msg, m *list.Model) tea.Cmd {
		item, ok := m.SelectedItem().(models.OperationItem)
		if !ok {
			return nil
		}
		keyMsg, ok := msg.(tea.KeyMsg)
		if !ok || m.FilterState() == list.Filtering {
			return nil
		}

		// SetItem indexes the unfiltered items
		index := m.GlobalIndex()
		switch {
		case key.Matches(keyMsg, keys.remove):
			updated := item.ToggleRemoved()
			status := "Removed " + item.Operation.ID + " from the MCP tools"
			if !updated.IsRemoved {
				status = "Added " + item.Operation.ID + " back to the MCP tools"
			}
			return tea.Batch(m.SetItem(index, updated), m.NewStatusMessage(statusMessageStyle(status)))

		case key.Matches(keyMsg, keys.restore):
			if item.NewDescription == "" {
				return nil
			}
			return tea.Batch(
				m.SetItem(index, item.UpdatedDescription("")),
				m.NewStatusMessage(statusMessageStyle("Restored description of "+item.Operation.ID)),
			)
		}
		return nil
	}

	d.ShortHelpFunc = keys.ShortHelp
	d.FullHelpFunc = keys.FullHelp
	return d
}
