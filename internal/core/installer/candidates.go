package installer

import (
	"os"
	"path/filepath"
)

// findCandidates implements the Skill Installer's subtree discovery rule:
// if root itself has SKILL.md, it is the single candidate; otherwise scan
// subdirectories recursively (skipping .git, but not other dot-directories
// like .claude or .cursor) — each directory containing SKILL.md is a
// candidate and its own subdirectories are not searched further.
func findCandidates(root string) ([]string, error) {
	if _, err := os.Stat(filepath.Join(root, skillFileName)); err == nil {
		return []string{root}, nil
	}

	var candidates []string
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == ".git" {
			continue
		}
		found, err := scanForSkillDirs(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}
	return candidates, nil
}

// scanForSkillDirs recursively scans dir for directories containing
// SKILL.md; a directory that qualifies as a candidate is not itself
// searched further (its subdirectories are not additional candidates).
func scanForSkillDirs(dir string) ([]string, error) {
	if _, err := os.Stat(filepath.Join(dir, skillFileName)); err == nil {
		return []string{dir}, nil
	}

	var found []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == ".git" {
			continue
		}
		sub, err := scanForSkillDirs(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		found = append(found, sub...)
	}
	return found, nil
}
