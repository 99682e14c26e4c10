package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/namematch"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage MCP servers",
	Long:  `Add, sync, import, remove, and list MCP server definitions.`,
}

// ---------------------------------------------------------------------------
// mcp add
// ---------------------------------------------------------------------------

var mcpAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a stdio or HTTP MCP server",
	Long: `Add a new MCP server record.

Stdio servers (the default): --command is required, --arg may repeat.
HTTP/SSE servers: pass --url and set --type http or --type sse.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		serverType, _ := cmd.Flags().GetString("type")
		command, _ := cmd.Flags().GetString("command")
		cmdArgs, _ := cmd.Flags().GetStringArray("arg")
		url, _ := cmd.Flags().GetString("url")
		env, _ := cmd.Flags().GetStringToString("env")

		srv := model.MCPServer{
			Name:       args[0],
			ServerType: model.ServerType(serverType),
			ServerConfig: model.ServerConfig{
				Command: command,
				Args:    cmdArgs,
				URL:     url,
				Env:     env,
			},
		}
		created, err := d.eng.CreateMCPServer(srv)
		if err != nil {
			return err
		}

		if toolKey, _ := cmd.Flags().GetString("tool"); toolKey != "" {
			if _, err := d.eng.SetServerToolEnabled(created.Name, toolKey, true); err != nil {
				return err
			}
			detail, err := d.eng.SyncServerToTool(created.Name, toolKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Added %s, synced to %s (%s)\n", created.Name, toolKey, detail.Status)
			return nil
		}

		fmt.Fprintf(os.Stdout, "Added %s\n", created.Name)
		return nil
	},
}

// ---------------------------------------------------------------------------
// mcp sync
// ---------------------------------------------------------------------------

var mcpSyncCmd = &cobra.Command{
	Use:   "sync [server-name]",
	Short: "Sync MCP server(s) to their enabled tools",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		toolKey, _ := cmd.Flags().GetString("tool")

		if len(args) == 1 {
			if toolKey == "" {
				return fmt.Errorf("--tool is required when syncing a single server")
			}
			detail, err := d.eng.SyncServerToTool(args[0], toolKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s -> %s: %s\n", args[0], toolKey, detail.Status)
			return nil
		}

		results, err := d.eng.SyncAllMCP(cmd.Context())
		if err != nil {
			return err
		}
		errCount := 0
		for _, r := range results {
			if r.Detail.Status != model.StatusOK {
				errCount++
			}
			fmt.Fprintf(os.Stdout, "%s -> %s: %s\n", r.ServerName, r.ToolKey, r.Detail.Status)
		}
		fmt.Fprintf(os.Stdout, "\nSynced %d pair(s), %d error(s)\n", len(results), errCount)
		if errCount > 0 {
			return fmt.Errorf("%d sync pair(s) failed", errCount)
		}
		return nil
	},
}

// ---------------------------------------------------------------------------
// mcp import
// ---------------------------------------------------------------------------

// claudeCodePluginsToolKey is a pseudo tool-key accepted by mcp import: it
// doesn't name a Tool Registry entry, it fans out over every installed
// Claude Code plugin's own flat-map .mcp.json instead of a single tool's
// config file.
const claudeCodePluginsToolKey = "claude_code_plugins"

var mcpImportCmd = &cobra.Command{
	Use:   "import <tool-key>",
	Short: "Import MCP servers already configured in a tool's own config file",
	Long: `Reads toolKey's MCP config file and creates a new managed record for
every server name it defines that isn't already managed.

Pass claude_code_plugins instead of a tool key to import from every
installed Claude Code plugin's own .mcp.json (a flat map, unlike
claude_code's own config file) rather than from a single tool.

With --name, only the candidate whose name best fuzzy-matches the given
query is imported (interactive name resolution, per the onboarding-style
candidate matching used elsewhere in this tool); --name is not supported
together with claude_code_plugins, since its candidates span many files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		toolKey := args[0]

		if toolKey == claudeCodePluginsToolKey {
			created, err := d.eng.ImportMCPFromClaudeCodePlugins()
			if err != nil {
				return err
			}
			for _, srv := range created {
				fmt.Fprintf(os.Stdout, "Imported %s\n", srv.Name)
			}
			fmt.Fprintf(os.Stdout, "\nImported %d server(s)\n", len(created))
			return nil
		}

		if query, _ := cmd.Flags().GetString("name"); query != "" {
			srv, err := d.eng.ImportMCPFromToolNamed(toolKey, query)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Imported %s from %s\n", srv.Name, toolKey)
			return nil
		}

		created, err := d.eng.ImportMCPFromTool(toolKey)
		if err != nil {
			return err
		}
		for _, srv := range created {
			fmt.Fprintf(os.Stdout, "Imported %s\n", srv.Name)
		}
		fmt.Fprintf(os.Stdout, "\nImported %d server(s)\n", len(created))
		return nil
	},
}

// ---------------------------------------------------------------------------
// mcp remove
// ---------------------------------------------------------------------------

var mcpRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an MCP server record and unsync it from every enabled tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		srv, ok, err := d.eng.MCP.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("mcp server %q not found", args[0])
		}
		for toolKey := range srv.EnabledTools {
			if _, err := d.eng.SetServerToolEnabled(args[0], toolKey, false); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: unsyncing %s from %s: %v\n", args[0], toolKey, err)
			}
		}
		if err := d.eng.MCP.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Removed %s\n", args[0])
		return nil
	},
}

// ---------------------------------------------------------------------------
// mcp list
// ---------------------------------------------------------------------------

var mcpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every managed MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		servers, err := d.eng.MCP.All()
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(servers, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Name\tType\tEnabled Tools")
		for _, srv := range servers {
			fmt.Fprintf(w, "%s\t%s\t%s\n", srv.Name, srv.ServerType, joinStrings(enabledToolKeys(srv.EnabledTools)))
		}
		return w.Flush()
	},
}

// ---------------------------------------------------------------------------
// mcp candidates (helper exercising namematch.RankMatches for discovery UX)
// ---------------------------------------------------------------------------

var mcpCandidatesCmd = &cobra.Command{
	Use:    "candidates <tool-key> <query>",
	Short:  "List a tool's importable MCP servers ranked by name match",
	Hidden: true,
	Args:   cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		candidates, err := d.eng.PreviewMCPImportCandidates(args[0])
		if err != nil {
			return err
		}
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		for _, name := range namematch.RankMatches(args[1], names) {
			fmt.Fprintln(os.Stdout, name)
		}
		return nil
	},
}

func init() {
	mcpAddCmd.Flags().String("type", string(model.ServerStdio), "Server type: stdio, http, or sse")
	mcpAddCmd.Flags().String("command", "", "Command to launch (stdio servers)")
	mcpAddCmd.Flags().StringArray("arg", nil, "Argument to pass (repeatable, stdio servers)")
	mcpAddCmd.Flags().String("url", "", "Endpoint URL (http/sse servers)")
	mcpAddCmd.Flags().StringToString("env", nil, "Environment variable to set, k=v (repeatable)")
	mcpAddCmd.Flags().String("tool", "", "Enable and immediately sync to this tool key after add")

	mcpSyncCmd.Flags().String("tool", "", "Tool key to sync to (required with a server name argument)")

	mcpImportCmd.Flags().String("name", "", "Only import the candidate best matching this name")

	mcpListCmd.Flags().Bool("json", false, "Print as JSON instead of a table")

	mcpCmd.AddCommand(mcpAddCmd, mcpSyncCmd, mcpImportCmd, mcpRemoveCmd, mcpListCmd, mcpCandidatesCmd)
	rootCmd.AddCommand(mcpCmd)
}
