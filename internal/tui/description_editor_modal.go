package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// DescriptionEditorModal edits one tool description in a textarea.
// Saving and cancelling are handled by the list that opened it.
type DescriptionEditorModal struct {
	title    string
	textarea textarea.Model
}

// NewEditModal opens the editor for title, prefilled with initial
func NewEditModal(title, initial string) DescriptionEditorModal {
	ta := textarea.New()
	ta.Placeholder = "Description shown to MCP clients"
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(8)
	ta.SetValue(initial)
	ta.Focus()

	return DescriptionEditorModal{title: title, textarea: ta}
}

func (m DescriptionEditorModal) Init() tea.Cmd {
	return textarea.Blink
}

func (m DescriptionEditorModal) Update(msg tea.Msg) (DescriptionEditorModal, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// Description returns the edited text
func (m DescriptionEditorModal) Description() string {
	return m.textarea.Value()
}

func (m DescriptionEditorModal) View() string {
	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n",
		editHeaderStyle.Render(m.title),
		m.textarea.View(),
		helpStyle.Render("ctrl+s save • esc cancel"),
	)
}
