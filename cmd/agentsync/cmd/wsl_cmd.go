package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barysiuk/agentsync/internal/core/engine"
	"github.com/spf13/cobra"
)

var wslCmd = &cobra.Command{
	Use:   "wsl",
	Short: "Manage the WSL bridge",
}

var wslSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror enabled skills into the configured WSL distro",
	Long: `Mirrors every skill enabled for at least one WSL-relevant tool into the
configured distro, re-links the per-tool symlinks inside it, and prunes
stale mirror entries. Requires a WSL sync config to already have been saved
(enabled, with a distro set) — this repository does not expose a setup
wizard, only the sync operation itself.

--mapping may repeat as tool_key=/linux/path/to/skills to tell the bridge
where each WSL-side tool expects its skills directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		cfg, err := engine.LoadWSLConfig(d.st)
		if err != nil {
			return fmt.Errorf("loading wsl config: %w", err)
		}
		if !cfg.Enabled {
			return fmt.Errorf("wsl bridge is not enabled; nothing to sync")
		}

		d.eng.EnableWSLBridge(cfg.Distro, filepath.Join(d.cfgDir, "wsl.log"))

		mappingFlags, _ := cmd.Flags().GetStringArray("mapping")
		dirs := map[string]string{}
		for _, m := range append(cfg.MCPMappings, mappingFlags...) {
			toolKey, dir, ok := strings.Cut(m, "=")
			if !ok {
				return fmt.Errorf("invalid --mapping %q, expected tool_key=/linux/path", m)
			}
			dirs[toolKey] = dir
		}

		if err := d.eng.SyncWSL(cmd.Context(), dirs); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "wsl sync complete")
		return nil
	},
}

func init() {
	wslSyncCmd.Flags().StringArray("mapping", nil, "tool_key=/linux/path mapping (repeatable), merged with the saved config")
	wslCmd.AddCommand(wslSyncCmd)
	rootCmd.AddCommand(wslCmd)
}
