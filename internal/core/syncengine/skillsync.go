// Package syncengine propagates skills and MCP servers out of the
// engine's canonical records into each tool's own filesystem layout, per
// skills and MCP servers.
package syncengine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/pathutil"
	"github.com/barysiuk/agentsync/internal/core/platform"
	"github.com/barysiuk/agentsync/internal/core/skillstore"
	"github.com/barysiuk/agentsync/internal/core/tool"
)

// errTargetExists is the reserved TARGET_EXISTS|<path> error form.
func errTargetExists(target string) error {
	return fmt.Errorf("TARGET_EXISTS|%s", target)
}

// errToolNotInstalled is the reserved TOOL_NOT_INSTALLED|<tool_key>|<path> form.
func errToolNotInstalled(toolKey, resolvedSkillsPath string) error {
	return fmt.Errorf("TOOL_NOT_INSTALLED|%s|%s", toolKey, resolvedSkillsPath)
}

// SkillSyncer links or copies skills out of the central store into each
// tool's skills directory.
type SkillSyncer struct {
	skills *skillstore.Store
}

// NewSkillSyncer returns a SkillSyncer backed by the given central store.
func NewSkillSyncer(skills *skillstore.Store) *SkillSyncer {
	return &SkillSyncer{skills: skills}
}

// SyncToTool propagates sk into t's skills directory as
// "<skills_dir>/<skill_name>". It is idempotent: if the target already
// exists as a symlink pointing at the resolved central source, it
// succeeds without touching anything. If the target exists for any other
// reason, it fails with TARGET_EXISTS unless overwrite is set.
func (s *SkillSyncer) SyncToTool(sk model.Skill, t model.ToolEntry, overwrite bool) (model.SkillSyncDetail, error) {
	skillsDir, err := tool.SkillsDir(t)
	if err != nil {
		return model.SkillSyncDetail{}, err
	}
	if skillsDir == "" {
		return model.SkillSyncDetail{}, fmt.Errorf("tool %q does not support skills", t.Key)
	}
	if !tool.IsInstalled(t) {
		return model.SkillSyncDetail{}, errToolNotInstalled(t.Key, skillsDir)
	}

	source := s.skills.ResolvePath(sk)
	target := filepath.Join(skillsDir, sk.Name)

	if existingTarget, ok := readExistingLink(target); ok {
		if pathutil.SameFile(existingTarget, source) {
			return model.SkillSyncDetail{TargetPath: target, Mode: model.ModeSymlink, Status: model.StatusOK}, nil
		}
	}

	if _, err := os.Lstat(target); err == nil {
		if !overwrite {
			return model.SkillSyncDetail{}, errTargetExists(target)
		}
		if err := removeTarget(target); err != nil {
			return model.SkillSyncDetail{}, fmt.Errorf("removing existing target %s: %w", target, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return model.SkillSyncDetail{}, fmt.Errorf("creating skills directory: %w", err)
	}

	if t.ForceCopy {
		if err := copyDir(source, target); err != nil {
			return model.SkillSyncDetail{}, fmt.Errorf("copying %s to %s: %w", source, target, err)
		}
		return model.SkillSyncDetail{TargetPath: target, Mode: model.ModeCopy, Status: model.StatusOK}, nil
	}

	mode, err := linkOrCopy(source, target)
	if err != nil {
		return model.SkillSyncDetail{}, err
	}
	return model.SkillSyncDetail{TargetPath: target, Mode: mode, Status: model.StatusOK}, nil
}

// linkOrCopy attempts a plain symlink, then (on Windows only) a directory
// junction, falling through to a full copy if both fail.
func linkOrCopy(source, target string) (model.SyncMode, error) {
	if err := os.Symlink(source, target); err == nil {
		return model.ModeSymlink, nil
	}

	if platform.IsWindows() {
		if err := createJunction(source, target); err == nil {
			return model.ModeJunction, nil
		}
	}

	if err := copyDir(source, target); err != nil {
		return "", fmt.Errorf("symlink (and junction, if attempted) failed; copy fallback also failed: %w", err)
	}
	return model.ModeCopy, nil
}

// readExistingLink reports the resolved target of an existing symlink at
// path, or ok=false if path is absent or not a symlink. A symlink whose
// target is missing is still reported (it must still be recognized and
// cleaned up by callers).
func readExistingLink(path string) (target string, ok bool) {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return "", false
	}
	dest, err := os.Readlink(path)
	if err != nil {
		return "", false
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(path), dest)
	}
	return dest, true
}

// removeTarget removes an existing sync target, branching on its type so
// that Windows junctions (which require remove_dir) and directory
// symlinks (which require remove_file) are each handled with the syscall
// they need; a symlink whose target no longer exists is still a symlink
// and is cleaned up the same way.
func removeTarget(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if platform.IsWindows() {
			if junction, jerr := isJunction(path); jerr == nil {
				return removeReparsePoint(path, junction)
			}
		}
		return os.Remove(path)
	}

	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// Unsync removes the on-disk sync target for (skill, tool). Deleting the
// per-tool sync_details entry from the record is left to the caller
// (engine).
func (s *SkillSyncer) Unsync(sk model.Skill, t model.ToolEntry) error {
	skillsDir, err := tool.SkillsDir(t)
	if err != nil {
		return err
	}
	if skillsDir == "" {
		return nil
	}
	target := filepath.Join(skillsDir, sk.Name)
	if err := removeTarget(target); err != nil {
		return fmt.Errorf("unsyncing %s from %s: %w", sk.Name, t.Key, err)
	}
	return nil
}

// copyDir copies src into dst recursively, never descending into .git.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode().Perm())
	})
}
