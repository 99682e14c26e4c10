package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/spf13/cobra"
)

// toolCmd exposes the Tool Registry's custom-tool overlay:
// built-in tools are compile-time constants and cannot be added or removed
// here, only declared custom tools can.
var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Declare custom tools the engine doesn't ship a built-in entry for",
}

var toolAddCmd = &cobra.Command{
	Use:   "add <key>",
	Short: "Register or update a custom tool",
	Long: `A custom tool may declare a skills block, an MCP block, or both. Omitting
one block on an update preserves whatever that block already held.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		displayName, _ := cmd.Flags().GetString("display-name")
		skillsDir, _ := cmd.Flags().GetString("skills-dir")
		detectDir, _ := cmd.Flags().GetString("detect-dir")
		forceCopy, _ := cmd.Flags().GetBool("force-copy")
		mcpConfigPath, _ := cmd.Flags().GetString("mcp-config-path")
		mcpFormat, _ := cmd.Flags().GetString("mcp-format")
		mcpField, _ := cmd.Flags().GetString("mcp-field")

		if displayName == "" {
			displayName = args[0]
		}
		entry := model.ToolEntry{
			Key:               args[0],
			DisplayName:       displayName,
			RelativeSkillsDir: skillsDir,
			RelativeDetectDir: detectDir,
			ForceCopy:         forceCopy,
			MCPConfigPath:     mcpConfigPath,
			MCPConfigFormat:   model.MCPFormat(mcpFormat),
			MCPField:          mcpField,
		}
		if err := d.eng.RegisterCustomTool(entry); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Registered tool %s\n", args[0])
		return nil
	},
}

var toolRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove a custom tool declaration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		if err := d.eng.RemoveCustomTool(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Removed tool %s\n", args[0])
		return nil
	},
}

var toolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tool (built-in and custom)",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		tools, err := d.eng.Registry.All()
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(tools, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Key\tDisplay Name\tSkills\tMCP\tCustom")
		for _, t := range tools {
			fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%v\n", t.Key, t.DisplayName, t.SupportsSkills(), t.SupportsMCP(), t.Custom)
		}
		return w.Flush()
	},
}

func init() {
	toolAddCmd.Flags().String("display-name", "", "Human-readable name (defaults to the key)")
	toolAddCmd.Flags().String("skills-dir", "", "Resolved skills directory this tool reads from")
	toolAddCmd.Flags().String("detect-dir", "", "Directory whose existence marks this tool as installed")
	toolAddCmd.Flags().Bool("force-copy", false, "Always copy rather than symlink when syncing skills to this tool")
	toolAddCmd.Flags().String("mcp-config-path", "", "This tool's MCP config file path")
	toolAddCmd.Flags().String("mcp-format", "", "MCP config format: json, jsonc, toml, or opencode")
	toolAddCmd.Flags().String("mcp-field", "", "Top-level field/table name holding server entries in the MCP config")

	toolListCmd.Flags().Bool("json", false, "Print as JSON instead of a table")

	toolCmd.AddCommand(toolAddCmd, toolRemoveCmd, toolListCmd)
	rootCmd.AddCommand(toolCmd)
}
