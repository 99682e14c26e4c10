package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// onboardScanTimeout bounds the Onboarding
// Scanner, whose sources may include arbitrarily slow network mounts.
const onboardScanTimeout = 30 * time.Second

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Discover pre-existing skills installed outside the central store",
}

var onboardScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan every installed tool for pre-existing skills",
	Long: `Walks every tool's skills directory, the extra known sources, and every
installed Claude-Code plugin, grouping discovered skills by name and
flagging groups whose variants disagree in content.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), onboardScanTimeout)
		defer cancel()

		plan, err := d.eng.ScanForOnboarding(ctx)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}

		fmt.Fprintf(os.Stdout, "Scanned %d tool(s), found %d skill(s) in %d group(s)\n\n",
			plan.TotalToolsScanned, plan.TotalSkillsFound, len(plan.Groups))
		for _, g := range plan.Groups {
			conflict := ""
			if g.HasConflict {
				conflict = " (conflict)"
			}
			fmt.Fprintf(os.Stdout, "%s%s\n", g.Name, conflict)
			for _, v := range g.Variants {
				fmt.Fprintf(os.Stdout, "  %s: %s\n", v.Tool, v.Path)
			}
		}
		return nil
	},
}

var onboardImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import an onboarding-discovered skill into the central store by (fuzzy) name",
	Long: `Re-scans, fuzzy-matches <name> against the discovered group names, and
installs the first variant of the best match into the central store, the
way a direct local install would.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), onboardScanTimeout)
		defer cancel()

		group, err := d.eng.ResolveOnboardingSkill(ctx, args[0])
		if err != nil {
			return err
		}
		if len(group.Variants) == 0 {
			return fmt.Errorf("onboarding group %q has no variants", group.Name)
		}
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		sk, err := d.eng.InstallSkillLocal(group.Variants[0].Path, overwrite)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Imported %s from %s (%s)\n", sk.Name, group.Variants[0].Tool, group.Variants[0].Path)
		return nil
	},
}

func init() {
	onboardScanCmd.Flags().Bool("json", false, "Print as JSON instead of a grouped summary")
	onboardImportCmd.Flags().Bool("overwrite", false, "Overwrite an existing skill of the same name")

	onboardCmd.AddCommand(onboardScanCmd, onboardImportCmd)
	rootCmd.AddCommand(onboardCmd)
}
