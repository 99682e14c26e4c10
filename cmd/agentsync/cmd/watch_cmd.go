package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/barysiuk/agentsync/internal/core/watch"
	"github.com/spf13/cobra"
)

// watchCmd is a local-dev helper, not part of the Sync Engine's core
// contract: it watches the central skill store for edits and re-syncs
// automatically, useful while iterating on a skill's content.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the central skill store and re-sync on change (local dev loop)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		targets := watch.CentralStoreTargets(d.eng.Skills.Root())
		if len(targets) == 0 {
			return fmt.Errorf("central store %s has nothing to watch yet", d.eng.Skills.Root())
		}

		w, err := watch.New(targets, func(path string) {
			fmt.Fprintf(os.Stdout, "changed: %s, re-syncing...\n", path)
			results, err := d.eng.SyncAllSkills(cmd.Context())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return
			}
			fmt.Fprintf(os.Stdout, "synced %d pair(s)\n", len(results))
		})
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stdout, "watching %s for changes, press Ctrl+C to stop\n", d.eng.Skills.Root())
		w.Run(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
