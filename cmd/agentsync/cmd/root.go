package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "agentsync",
	Short: "Sync Skills and MCP servers across AI coding tools",
	Long: `agentsync centrally manages Skills and MCP server configs and propagates
them to every AI coding tool installed on the machine — Claude Code, Codex,
Cursor, OpenCode, Gemini CLI, Windsurf, and any tool you declare yourself.

Edit a skill or an MCP server once; agentsync converts and writes it into
each enabled tool's own format.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentsync %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
