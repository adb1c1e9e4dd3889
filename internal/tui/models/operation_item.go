package models

import (
	"fmt"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/charmbracelet/lipgloss"
)

// OperationItem wraps a catalog operation for display in the list
// Implements list.Item
type OperationItem struct {
	Operation      *catalog.Operation
	NewDescription string
	IsRemoved      bool
}

func (i OperationItem) Title() string {
	return fmt.Sprintf("%s %s (%s)", i.Operation.Method, i.Operation.Path, i.Operation.ID)
}

func (i OperationItem) Description() string {
	if i.IsRemoved {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Render("[Removed]")
	}
	if i.NewDescription != "" {
		return i.NewDescription
	}
	return i.Operation.ToolDescription()
}

// OriginalDescription is the description the tool gets without an override
func (i OperationItem) OriginalDescription() string {
	return i.Operation.ToolDescription()
}

func (i OperationItem) UpdatedDescription(newDescription string) OperationItem {
	if newDescription == i.OriginalDescription() {
		newDescription = ""
	}
	i.NewDescription = newDescription
	return i
}

func (i OperationItem) ToggleRemoved() OperationItem {
	i.IsRemoved = !i.IsRemoved
	return i
}

func (i OperationItem) FilterValue() string {
	return i.Operation.ID + " " + i.Operation.Path + " " + i.Operation.ToolDescription()
}
