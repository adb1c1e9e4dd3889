package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	maxPreviewOperations = 5
	untagged             = "(untagged)"
)

type mainPageKeyMap struct {
	open key.Binding
	quit key.Binding
}

// OpenListItemMsg is sent when the user opens the operations list
type OpenListItemMsg struct{}

// MainPageModel is the overview of the loaded document
type MainPageModel struct {
	keys       mainPageKeyMap
	source     string
	operations []*catalog.Operation
	tags       []tagCount
	width      int
}

type tagCount struct {
	tag   string
	count int
}

// NewMainPageModel creates the overview for the operations of the document at source
func NewMainPageModel(source string, operations []*catalog.Operation) MainPageModel {
	return MainPageModel{
		keys: mainPageKeyMap{
			open: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "Open operations editor")),
			quit: key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "Quit")),
		},
		source:     source,
		operations: operations,
		tags:       countTags(operations),
	}
}

// countTags counts operations per first tag, largest groups first
func countTags(operations []*catalog.Operation) []tagCount {
	counts := make(map[string]int)
	for _, op := range operations {
		tag := untagged
		if op.Definition != nil && len(op.Definition.Tags) > 0 {
			tag = op.Definition.Tags[0]
		}
		counts[tag]++
	}
	out := make([]tagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, tagCount{tag: tag, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].tag < out[j].tag
	})
	return out
}

func (m MainPageModel) Init() tea.Cmd {
	return nil
}

func (m MainPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.open):
			return m, func() tea.Msg { return OpenListItemMsg{} }
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m MainPageModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	centered := lipgloss.NewStyle().Width(m.width - 4).Align(lipgloss.Center)

	intro := fmt.Sprintf("%s\n\n%s in %s. Pick the ones that become MCP tools\nand reword their descriptions.",
		m.source,
		pluralize(len(m.operations), "operation"),
		pluralize(len(m.tags), "tag"),
	)

	var preview strings.Builder
	for _, tc := range m.tags[:min(len(m.tags), maxPreviewOperations)] {
		fmt.Fprintf(&preview, "%-24s %d\n", tc.tag, tc.count)
	}
	preview.WriteString("\n")
	for _, op := range m.operations[:min(len(m.operations), maxPreviewOperations)] {
		fmt.Fprintf(&preview, "%-7s %s  %s\n", op.Method, op.Path, op.ID)
	}
	if rest := len(m.operations) - maxPreviewOperations; rest > 0 {
		fmt.Fprintf(&preview, "... and %d more", rest)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		titleStyle.Render("MCP Tool Adjustments"),
		"",
		centered.Render(intro),
		"",
		previewStyle.Width(m.width-10).Render(strings.TrimRight(preview.String(), "\n")),
		"",
		centered.Foreground(accent).Render("Press ENTER to open the operations editor"),
		centered.Inherit(helpStyle).Render("Press q or ctrl+c to quit"),
	)
	return docStyle.Render(content)
}

// pluralize returns the count followed by the noun, pluralized with a trailing s
func pluralize(count int, singular string) string {
	if count == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %ss", count, singular)
}
