package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/barysiuk/agentsync/internal/core/installer"
	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/spf13/cobra"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage skills",
	Long:  `Install, sync, remove, and list skills managed in the central skill store.`,
}

// ---------------------------------------------------------------------------
// skill install
// ---------------------------------------------------------------------------

var skillInstallCmd = &cobra.Command{
	Use:   "install <local-path-or-git-url>",
	Short: "Install a skill into the central store",
	Long: `Install a skill from a local directory or a Git URL.

A local path is installed as-is (SKILL.md's frontmatter "name" wins over the
directory's basename). A Git URL is cloned into the shared cache and, absent
an explicit --subpath, the repository is inspected for exactly one SKILL.md
candidate.

Examples:
  agentsync skill install ./my-skill
  agentsync skill install https://github.com/acme/skills.git --subpath pack/alpha --tool claude_code`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		arg := args[0]
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		isURL := strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "git@")

		var sk = skillResult{}
		if isURL {
			subpath, _ := cmd.Flags().GetString("subpath")
			branch, _ := cmd.Flags().GetString("branch")
			result, err := d.eng.InstallSkillGit(cmd.Context(), installer.GitInstallOptions{
				Source:    arg,
				Branch:    branch,
				Subpath:   subpath,
				Overwrite: overwrite,
			})
			if err != nil {
				return err
			}
			sk.Name, sk.CentralPath = result.Name, result.CentralPath
		} else {
			result, err := d.eng.InstallSkillLocal(arg, overwrite)
			if err != nil {
				return err
			}
			sk.Name, sk.CentralPath = result.Name, result.CentralPath
		}

		if toolKey, _ := cmd.Flags().GetString("tool"); toolKey != "" {
			if _, err := d.eng.SetSkillToolEnabled(sk.Name, toolKey, true); err != nil {
				return fmt.Errorf("enabling %s for %s: %w", sk.Name, toolKey, err)
			}
			detail, err := d.eng.SyncSkillToTool(sk.Name, toolKey, overwrite)
			if err != nil {
				return fmt.Errorf("syncing %s to %s: %w", sk.Name, toolKey, err)
			}
			fmt.Fprintf(os.Stdout, "Installed %s, synced to %s (%s)\n", sk.Name, toolKey, detail.Status)
			return nil
		}

		fmt.Fprintf(os.Stdout, "Installed %s at %s\n", sk.Name, sk.CentralPath)
		return nil
	},
}

type skillResult struct {
	Name        string
	CentralPath string
}

// ---------------------------------------------------------------------------
// skill sync
// ---------------------------------------------------------------------------

var skillSyncCmd = &cobra.Command{
	Use:   "sync [skill-name]",
	Short: "Sync skill(s) to their enabled tools",
	Long: `With a skill name and --tool, syncs just that (skill, tool) pair.
With no arguments, runs sync_all: every enabled (skill, tool) pair, fanned
out across tools with bounded concurrency.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		toolKey, _ := cmd.Flags().GetString("tool")
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		if len(args) == 1 {
			if toolKey == "" {
				return fmt.Errorf("--tool is required when syncing a single skill")
			}
			detail, err := d.eng.SyncSkillToTool(args[0], toolKey, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s -> %s: %s\n", args[0], toolKey, detail.Status)
			return nil
		}

		results, err := d.eng.SyncAllSkills(cmd.Context())
		if err != nil {
			return err
		}
		errCount := 0
		for _, r := range results {
			if r.Detail.Status != model.StatusOK {
				errCount++
			}
			fmt.Fprintf(os.Stdout, "%s -> %s: %s\n", r.SkillName, r.ToolKey, r.Detail.Status)
		}
		fmt.Fprintf(os.Stdout, "\nSynced %d pair(s), %d error(s)\n", len(results), errCount)
		if errCount > 0 {
			return fmt.Errorf("%d sync pair(s) failed", errCount)
		}
		return nil
	},
}

// ---------------------------------------------------------------------------
// skill remove
// ---------------------------------------------------------------------------

var skillRemoveCmd = &cobra.Command{
	Use:   "remove <skill-name>",
	Short: "Remove a skill from the central store and every tool it was synced to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		if errs := d.eng.DeleteSkill(args[0]); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "Error: %v\n", e)
			}
			return fmt.Errorf("%d error(s) removing %s", len(errs), args[0])
		}
		fmt.Fprintf(os.Stdout, "Removed %s\n", args[0])
		return nil
	},
}

// ---------------------------------------------------------------------------
// skill list
// ---------------------------------------------------------------------------

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every managed skill",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		skills, err := d.eng.Skills.All()
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(skills, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Name\tSource\tEnabled Tools")
		for _, sk := range skills {
			fmt.Fprintf(w, "%s\t%s\t%s\n", sk.Name, sk.SourceType, joinStrings(enabledToolKeys(sk.EnabledTools)))
		}
		return w.Flush()
	},
}

func init() {
	skillInstallCmd.Flags().Bool("overwrite", false, "Overwrite an existing skill of the same name")
	skillInstallCmd.Flags().String("subpath", "", "Git subtree path to install (Git sources only)")
	skillInstallCmd.Flags().String("branch", "", "Git branch/ref to install from (Git sources only)")
	skillInstallCmd.Flags().String("tool", "", "Enable and immediately sync to this tool key after install")

	skillSyncCmd.Flags().String("tool", "", "Tool key to sync to (required with a skill name argument)")
	skillSyncCmd.Flags().Bool("overwrite", false, "Overwrite an existing on-disk target that isn't already the managed symlink")

	skillListCmd.Flags().Bool("json", false, "Print as JSON instead of a table")

	skillCmd.AddCommand(skillInstallCmd, skillSyncCmd, skillRemoveCmd, skillListCmd)
	rootCmd.AddCommand(skillCmd)
}
