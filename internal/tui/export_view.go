package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	adjustments "github.com/brizzai/mcp-openapi-hub/internal/models"
	"github.com/brizzai/mcp-openapi-hub/internal/tui/models"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// BackToMainMsg returns from the export prompt to the operations list
type BackToMainMsg struct{}

// ExportView prompts for a filename and writes the adjustments there
type ExportView struct {
	operations []*models.OperationItem
	textInput  textinput.Model
	summary    string
	status     string
	width      int
	height     int
	Success    bool
}

// NewExportView creates the export prompt, prefilled with path when set
func NewExportView(operations []*models.OperationItem, path string) ExportView {
	ti := textinput.New()
	ti.Placeholder = "adjustments.yaml"
	ti.SetValue(path)
	ti.Focus()
	ti.Width = 50

	kept, edited := 0, 0
	for _, op := range operations {
		if op.IsRemoved {
			continue
		}
		kept++
		if op.NewDescription != "" {
			edited++
		}
	}

	return ExportView{
		operations: operations,
		textInput:  ti,
		summary: fmt.Sprintf("%d of %d operations kept, %d descriptions changed",
			kept, len(operations), edited),
	}
}

func (m ExportView) Init() tea.Cmd {
	return textinput.Blink
}

func (m ExportView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return BackToMainMsg{} }
		case "enter":
			return m.export()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m ExportView) export() (tea.Model, tea.Cmd) {
	filename := exportFilename(m.textInput.Value())
	if filename == "" {
		m.status = errorMessageStyle("Please enter a filename")
		return m, nil
	}
	if err := ExportAdjustmentsToYamlFile(m.operations, filename); err != nil {
		m.status = errorMessageStyle(fmt.Sprintf("Error exporting: %v", err))
		return m, nil
	}

	m.Success = true
	m.status = completeMessageStyle("Exported to " + filename)
	return m, tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tea.Quit()
	})
}

// exportFilename trims the input and adds a .yaml extension when it has none
func exportFilename(input string) string {
	name := strings.TrimSpace(input)
	if name == "" {
		return ""
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return name
	}
	return name + ".yaml"
}

func (m ExportView) View() string {
	lines := []string{
		titleStyle.Render("Export Adjustments"),
		"",
		m.summary,
		"",
		"File to write:",
		m.textInput.View(),
		"",
	}
	if m.status != "" {
		lines = append(lines, m.status, "")
	}
	lines = append(lines, helpStyle.Render("esc back to the list • enter export"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
}

// BuildAdjustments collects the description overrides and, when anything was
// removed, the list of operations to keep
func BuildAdjustments(operations []*models.OperationItem) adjustments.MCPAdjustments {
	var out adjustments.MCPAdjustments
	removed := false
	var kept []string
	for _, op := range operations {
		if op.IsRemoved {
			removed = true
			continue
		}
		kept = append(kept, op.Operation.ID)
		if op.NewDescription != "" {
			out.Descriptions = append(out.Descriptions, adjustments.DescriptionUpdate{
				OperationID:    op.Operation.ID,
				NewDescription: op.NewDescription,
			})
		}
	}
	if removed {
		// an empty list keeps everything, so removing all operations still needs an entry
		if len(kept) == 0 {
			kept = []string{noOperations}
		}
		out.Operations = kept
	}
	return out
}

// noOperations matches no real operation id
const noOperations = "-"

// ExportAdjustmentsToYamlFile writes the adjustments of operations to filename
func ExportAdjustmentsToYamlFile(operations []*models.OperationItem, filename string) error {
	yamlData, err := yaml.Marshal(BuildAdjustments(operations))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filename, yamlData, 0o644)
}
