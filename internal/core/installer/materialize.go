package installer

import (
	"os"
	"path/filepath"
)

// materializeStaging copies src into the skillstore staging directory dst,
// replacing any previous staging content, skipping .git. The copy is plain
// (no symlink resolution) since sources here are either a local path the
// caller already controls or a fresh Git checkout, neither of which nests
// symlinks the way an arbitrary tool-managed skill directory might.
func materializeStaging(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
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
