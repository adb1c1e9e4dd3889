package tui

import (
	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/brizzai/mcp-openapi-hub/internal/parser"
	"github.com/brizzai/mcp-openapi-hub/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type listKeyMap struct {
	edit   key.Binding
	save   key.Binding
	cancel key.Binding
	finish key.Binding
	quit   key.Binding
}

// DoneMsg carries the edited operations to the export page
type DoneMsg struct {
	Operations []*models.OperationItem
}

func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		edit: key.NewBinding(
			key.WithKeys("E", "e"),
			key.WithHelp("e", "Edit description"),
		),
		save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),
		cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		finish: key.NewBinding(
			key.WithKeys("F", "f"),
			key.WithHelp("f", "Finish"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// ListItemModel lists the operations of a document and edits them in place
type ListItemModel struct {
	list      list.Model
	keys      *listKeyMap
	editor    *DescriptionEditorModal
	editIndex int
}

// NewListItemModel creates the operations list. Operations the adjuster does not
// select start out removed, overridden descriptions start out edited.
func NewListItemModel(operations []*catalog.Operation, adjuster *parser.Adjuster) ListItemModel {
	keys := newListKeyMap()

	items := make([]list.Item, len(operations))
	for i, op := range operations {
		item := models.OperationItem{
			Operation: op,
			IsRemoved: !adjuster.Selected(op.ID),
		}
		items[i] = item.UpdatedDescription(adjuster.Description(op.ID, ""))
	}

	l := list.New(items, newItemDelegate(newDelegateKeyMap()), 0, 0)
	l.Title = titleStyle.Render("MCP operations editor")
	l.SetShowFilter(true)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.edit, keys.finish, keys.quit}
	}

	return ListItemModel{list: l, keys: keys, editIndex: -1}
}

func (m ListItemModel) Init() tea.Cmd {
	return nil
}

// Busy reports whether esc belongs to the list, while editing or filtering
func (m ListItemModel) Busy() bool {
	return m.editor != nil || m.list.FilterState() != list.Unfiltered
}

func (m ListItemModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(size.Width-h, size.Height-v)
	}
	if m.editor != nil {
		return m.updateEditor(msg)
	}
	return m.updateList(msg)
}

func (m ListItemModel) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.save):
			item := m.list.Items()[m.editIndex].(models.OperationItem)
			updated := item.UpdatedDescription(m.editor.Description())
			m.editor = nil
			if updated.NewDescription == item.NewDescription {
				return m, nil
			}
			return m, tea.Batch(
				m.list.SetItem(m.editIndex, updated),
				m.list.NewStatusMessage(statusMessageStyle("Updated description of "+updated.Operation.ID)),
			)
		case key.Matches(keyMsg, m.keys.cancel):
			m.editor = nil
			return m, nil
		}
	}

	editor, cmd := m.editor.Update(msg)
	m.editor = &editor
	return m, cmd
}

func (m ListItemModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	// keys typed into the filter prompt are not commands
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(keyMsg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.edit):
			return m.openEditor()
		case key.Matches(keyMsg, m.keys.finish):
			operations := m.GetOperationUpdates()
			return m, func() tea.Msg { return DoneMsg{Operations: operations} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ListItemModel) openEditor() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(models.OperationItem)
	if !ok {
		return m, nil
	}
	if item.IsRemoved {
		return m, m.list.NewStatusMessage(statusMessageStyle("Can't edit removed operations"))
	}
	editor := NewEditModal(item.Title(), item.Description())
	m.editor = &editor
	m.editIndex = m.globalIndex(item.Operation.ID)
	return m, editor.Init()
}

// globalIndex maps an operation to its position in the unfiltered list
func (m ListItemModel) globalIndex(operationID string) int {
	for i, it := range m.list.Items() {
		if it.(models.OperationItem).Operation.ID == operationID {
			return i
		}
	}
	return -1
}

func (m ListItemModel) View() string {
	if m.editor != nil {
		return docStyle.Render(m.editor.View())
	}
	return docStyle.Render(m.list.View())
}

// GetOperationUpdates returns every operation with its edits, including filtered out ones
func (m ListItemModel) GetOperationUpdates() []*models.OperationItem {
	items := m.list.Items()
	result := make([]*models.OperationItem, len(items))
	for i, it := range items {
		item := it.(models.OperationItem)
		result[i] = &item
	}
	return result
}
