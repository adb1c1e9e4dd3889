package main

import (
	"os"

	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mcp-openapi-hub",
	Short: "Expose OpenAPI operations as MCP tools",
	Long: `MCP OpenAPI Hub loads OpenAPI (or Swagger 2.0) documents and publishes every
operation as an MCP tool. Documents can be added and removed at runtime through the admin API.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the configured documents and serve their tools over MCP",
	RunE:  runServe,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Load the configured documents and list the generated tools",
	RunE:  runTools,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		pterm.Info.Println(config.GetVersionInfo())
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(serveCmd, toolsCmd, versionCmd)
}
