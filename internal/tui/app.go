package tui

import (
	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/brizzai/mcp-openapi-hub/internal/parser"
	"github.com/brizzai/mcp-openapi-hub/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

type page int

const (
	pageMain page = iota
	pageList
	pageExport
)

// AppModel switches between the overview, the operations list and the export prompt
type AppModel struct {
	mainPage   MainPageModel
	listView   ListItemModel
	exportView ExportView
	exportPath string
	page       page
	size       tea.WindowSizeMsg
}

// NewAppModel creates an AppModel for the operations of the document at source.
// exportPath prefills the export prompt, usually the adjustments file that was loaded.
func NewAppModel(source string, operations []*catalog.Operation, adjuster *parser.Adjuster, exportPath string) AppModel {
	return AppModel{
		mainPage:   NewMainPageModel(source, operations),
		listView:   NewListItemModel(operations, adjuster),
		exportPath: exportPath,
		page:       pageMain,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.mainPage.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case OpenListItemMsg:
		m.page = pageList
		return m, m.listView.Init()

	case DoneMsg:
		m.page = pageExport
		m.exportView = NewExportView(msg.Operations, m.exportPath)
		// the export view was created after the last resize
		view, _ := m.exportView.Update(m.size)
		m.exportView = view.(ExportView)
		return m, m.exportView.Init()

	case BackToMainMsg:
		m.page = pageList
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "esc" && m.page == pageList && !m.listView.Busy() {
			m.page = pageMain
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.size = msg
		return m, m.resize(msg)
	}

	var cmd tea.Cmd
	var next tea.Model
	switch m.page {
	case pageMain:
		next, cmd = m.mainPage.Update(msg)
		m.mainPage = next.(MainPageModel)
	case pageList:
		next, cmd = m.listView.Update(msg)
		m.listView = next.(ListItemModel)
	case pageExport:
		next, cmd = m.exportView.Update(msg)
		m.exportView = next.(ExportView)
	}
	return m, cmd
}

// resize forwards the window size to every page, hidden ones included
func (m *AppModel) resize(msg tea.WindowSizeMsg) tea.Cmd {
	mainPage, mainCmd := m.mainPage.Update(msg)
	m.mainPage = mainPage.(MainPageModel)
	listView, listCmd := m.listView.Update(msg)
	m.listView = listView.(ListItemModel)
	exportView, exportCmd := m.exportView.Update(msg)
	m.exportView = exportView.(ExportView)
	return tea.Batch(mainCmd, listCmd, exportCmd)
}

func (m AppModel) View() string {
	switch m.page {
	case pageMain:
		return m.mainPage.View()
	case pageExport:
		return m.exportView.View()
	default:
		return m.listView.View()
	}
}

// GetOperationUpdates returns the operations with the edits made so far
func (m AppModel) GetOperationUpdates() []*models.OperationItem {
	return m.listView.GetOperationUpdates()
}

// IsFinished reports whether the adjustments were exported
func (m AppModel) IsFinished() bool {
	return m.exportView.Success
}
