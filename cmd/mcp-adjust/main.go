package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/pterm/pterm"

	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/brizzai/mcp-openapi-hub/internal/documents"
	"github.com/brizzai/mcp-openapi-hub/internal/models"
	"github.com/brizzai/mcp-openapi-hub/internal/parser"
	"github.com/brizzai/mcp-openapi-hub/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func main() {
	Execute()
}

var (
	location        string
	adjustmentsFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mcp-adjust",
	Short: "Choose which operations of an OpenAPI document become MCP tools",
	Long: `MCP Adjust is a CLI tool that helps you build an adjustments file for an OpenAPI document.
It allows you to drop operations and reword tool descriptions, keyed by operation id.`,
	Run: runTUI,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&location, "location", "", "URL or path of the OpenAPI document")
	rootCmd.PersistentFlags().StringVar(&adjustmentsFile, "adjustments-file", "", "Adjustments file to start from, also the default export target")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

// runTUI is the main function that runs the TUI
func runTUI(cmd *cobra.Command, args []string) {
	defer func() {
		if r := recover(); r != nil {
			pterm.Error.Printf("\nCaught panic: %v\n", r)
			pterm.Error.Printf("%s\n", debug.Stack())
			os.Exit(2)
		}
	}()

	if location == "" {
		pterm.Error.Println("Document location is required, you must supply it with --location")
		os.Exit(1)
	}

	spinner, _ := pterm.DefaultSpinner.Start("Loading " + location)
	spec, err := parser.NewSwaggerParser().Parse(context.Background(), location)
	if err != nil {
		spinner.Fail("Error parsing document: ", err)
		os.Exit(1)
	}
	spinner.Success("Loaded " + location)

	// every operation is listed, the adjuster only decides the initial state
	operations := documents.ExtractOperations(models.Document{Name: "adjust", Location: location}, spec, nil)
	if len(operations) == 0 {
		pterm.Warning.Println("The document has no operations with an operationId")
		os.Exit(0)
	}

	adjuster, err := parser.LoadAdjuster(adjustmentsFile)
	if err != nil {
		pterm.Error.Printf("Error loading adjustments file: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(tui.NewAppModel(location, operations, adjuster, adjustmentsFile), tea.WithAltScreen())

	m, err := p.Run()
	if err != nil {
		pterm.Error.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	finalModel := m.(tui.AppModel)

	// Only display summary if the user reached and completed the export page
	if finalModel.IsFinished() {
		kept := 0
		for _, op := range finalModel.GetOperationUpdates() {
			if !op.IsRemoved {
				kept++
			}
		}
		pterm.Info.Printfln("Processing complete. Kept %s operations out of %s.",
			pterm.LightGreen(kept),
			pterm.White(len(operations)))
	}
}
