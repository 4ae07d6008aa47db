package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the workdesk application
var rootCmd = &cobra.Command{
	Use:   "workdesk",
	Short: "Google Workspace MCP server",
	Long: `workdesk exposes Google Workspace (Sheets, Docs, Calendar, Drive) as
MCP tools for AI assistants.

It can run as:
  - An MCP server over stdio (default)
  - An MCP server over streamable HTTP with OAuth 2.1 authentication

Local accounts authenticate with 'workdesk auth login', which runs the
interactive Google OAuth flow and stores tokens on this machine.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "workdesk version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
