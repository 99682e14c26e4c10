// Package skillstore implements the Central Skill Store: the engine-owned
// directory holding the canonical copy of every managed skill, per
// the central store.
package skillstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/barysiuk/agentsync/internal/core/hash"
	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/pathutil"
	"github.com/barysiuk/agentsync/internal/core/store"
)

const recordCollection = "skills"

// errSkillExists builds the reserved SKILL_EXISTS|<name> error form, returned by
// Install when name collides and overwrite was not requested.
func errSkillExists(name string) error {
	return fmt.Errorf("SKILL_EXISTS|%s", name)
}

// Store owns <central_root>/<skill-name>/ directories and their metadata
// records.
type Store struct {
	root string // resolved absolute central root
	st   store.Store
}

// New returns a Store rooted at the resolved form of centralRoot (a
// "~/"-style stored path or an absolute path), backed by st for records.
func New(centralRoot string, st store.Store) (*Store, error) {
	root, err := pathutil.Resolve(centralRoot)
	if err != nil {
		return nil, err
	}
	return &Store{root: root, st: st}, nil
}

// Root returns the resolved absolute central root directory.
func (s *Store) Root() string { return s.root }

// Get returns the stored record for name.
func (s *Store) Get(name string) (model.Skill, bool, error) {
	var sk model.Skill
	err := s.st.Get(recordCollection, name, &sk)
	if err == store.ErrNotFound {
		return model.Skill{}, false, nil
	}
	if err != nil {
		return model.Skill{}, false, err
	}
	return sk, true, nil
}

// All returns every managed skill record.
func (s *Store) All() ([]model.Skill, error) {
	keys, err := s.st.Keys(recordCollection)
	if err != nil {
		return nil, err
	}
	out := make([]model.Skill, 0, len(keys))
	for _, k := range keys {
		sk, ok, err := s.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, sk)
		}
	}
	return out, nil
}

func (s *Store) save(sk model.Skill) error {
	return s.st.Put(recordCollection, sk.Name, sk)
}

// Install copies an already-materialized source directory into
// <root>/<name>/, resolving top-level symlinks and never copying .git, and
// records the new row with central_path stored relative to root. If the
// destination already exists and overwrite is false, it fails with
// SKILL_EXISTS|<name> and leaves the central store untouched.
func (s *Store) Install(id, name, sourceDir string, overwrite bool, nowMS int64) (model.Skill, error) {
	dest := filepath.Join(s.root, name)
	if _, err := os.Stat(dest); err == nil {
		if !overwrite {
			return model.Skill{}, errSkillExists(name)
		}
		if err := os.RemoveAll(dest); err != nil {
			return model.Skill{}, fmt.Errorf("removing existing skill dir: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return model.Skill{}, fmt.Errorf("creating central root: %w", err)
	}
	if err := copyTree(sourceDir, dest); err != nil {
		_ = os.RemoveAll(dest)
		return model.Skill{}, fmt.Errorf("installing skill %s: %w", name, err)
	}

	digest, err := hash.Dir(dest)
	if err != nil {
		return model.Skill{}, fmt.Errorf("hashing %s: %w", name, err)
	}

	rel, err := filepath.Rel(s.root, dest)
	if err != nil {
		rel = name
	}

	sk := model.Skill{
		ID:           id,
		Name:         name,
		CentralPath:  filepath.ToSlash(rel),
		ContentHash:  digest,
		EnabledTools: map[string]bool{},
		SyncDetails:  map[string]model.SkillSyncDetail{},
		CreatedAt:    nowMS,
		UpdatedAt:    nowMS,
	}
	if err := s.save(sk); err != nil {
		return model.Skill{}, err
	}
	return sk, nil
}

// StagingDir returns the sibling staging directory a caller (the installer)
// should materialize fresh content into before calling Commit, per the
// update-from-source contract: materialize into a staging sibling, then
// swap.
func (s *Store) StagingDir(name string) string {
	return filepath.Join(s.root, "."+name+".staging")
}

// Commit swaps a previously materialized StagingDir(name) into place as the
// new <root>/<name>/, via remove-then-rename (falling back to copy-and-remove
// if rename fails, e.g. across filesystems), recomputes the content hash,
// and updates the record. It reports whether the hash actually changed.
func (s *Store) Commit(name string, nowMS int64) (changed bool, sk model.Skill, err error) {
	existing, ok, err := s.Get(name)
	if err != nil {
		return false, model.Skill{}, err
	}
	staging := s.StagingDir(name)
	dest := filepath.Join(s.root, name)

	if err := os.RemoveAll(dest); err != nil {
		return false, model.Skill{}, fmt.Errorf("removing old content: %w", err)
	}
	if err := os.Rename(staging, dest); err != nil {
		if cerr := copyTree(staging, dest); cerr != nil {
			return false, model.Skill{}, fmt.Errorf("swapping in new content: rename: %v, copy: %w", err, cerr)
		}
		_ = os.RemoveAll(staging)
	}

	digest, err := hash.Dir(dest)
	if err != nil {
		return false, model.Skill{}, fmt.Errorf("hashing %s: %w", name, err)
	}

	rel, _ := filepath.Rel(s.root, dest)
	if !ok {
		existing = model.Skill{
			Name:         name,
			EnabledTools: map[string]bool{},
			SyncDetails:  map[string]model.SkillSyncDetail{},
			CreatedAt:    nowMS,
		}
	}
	changed = existing.ContentHash != digest
	existing.CentralPath = filepath.ToSlash(rel)
	existing.ContentHash = digest
	existing.UpdatedAt = nowMS
	if err := s.save(existing); err != nil {
		return false, model.Skill{}, err
	}
	return changed, existing, nil
}

// Delete removes the central directory for name and its record. Removal of
// per-tool sync targets is the Sync Engine's responsibility; callers that
// want the full delete contract should unsync every tool
// first and then call Delete.
func (s *Store) Delete(name string) error {
	dest := filepath.Join(s.root, name)
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("removing central directory for %s: %w", name, err)
	}
	return s.st.Delete(recordCollection, name)
}

// Save persists an updated record (e.g. after changing enabled_tools or
// sync_details).
func (s *Store) Save(sk model.Skill) error { return s.save(sk) }

// ResolvePath resolves a skill record's central_path to an absolute
// directory, accepting both the modern relative-to-root form and legacy
// absolute paths recorded by older data.
func (s *Store) ResolvePath(sk model.Skill) string {
	if filepath.IsAbs(filepath.FromSlash(sk.CentralPath)) {
		return filepath.FromSlash(sk.CentralPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(sk.CentralPath))
}

// copyTree copies src into dst, resolving top-level symlinks (including
// Git's Windows text-file symlink representation for small files that look
// like a bare path) and never descending into or copying .git.
func copyTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())
		if err := copyEntry(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyEntry(srcPath, dstPath string) error {
	info, err := os.Lstat(srcPath)
	if err != nil {
		return err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(srcPath)
		if err != nil {
			return err
		}
		resolved := target
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(filepath.Dir(srcPath), resolved)
		}
		return copyResolved(resolved, dstPath)
	}

	if info.IsDir() {
		return copySubtree(srcPath, dstPath)
	}

	return copyPossibleGitSymlinkFile(srcPath, dstPath, info)
}

// copyPossibleGitSymlinkFile handles Git's representation of a symlink on
// Windows checkouts without symlink support: a small text file whose
// content is a bare path. If content looks like such a path, the resolved
// target is copied instead of the literal text file.
func copyPossibleGitSymlinkFile(srcPath, dstPath string, info os.FileInfo) error {
	if info.Size() > 0 && info.Size() < 512 {
		data, err := os.ReadFile(srcPath)
		if err == nil {
			text := strings.TrimSpace(string(data))
			if looksLikeSymlinkTarget(text) {
				resolved := text
				if !filepath.IsAbs(resolved) {
					resolved = filepath.Join(filepath.Dir(srcPath), resolved)
				}
				if st, err := os.Stat(resolved); err == nil {
					return copyResolvedInfo(resolved, dstPath, st)
				}
			}
		}
	}
	return copyFile(srcPath, dstPath, info)
}

func looksLikeSymlinkTarget(text string) bool {
	if text == "" || strings.ContainsAny(text, "\x00") {
		return false
	}
	if strings.Contains(text, "\n") {
		return false
	}
	return !strings.ContainsAny(text, "<>|\"")
}

func copyResolved(resolved, dstPath string) error {
	st, err := os.Stat(resolved)
	if err != nil {
		return err
	}
	return copyResolvedInfo(resolved, dstPath, st)
}

func copyResolvedInfo(resolved, dstPath string, st os.FileInfo) error {
	if st.IsDir() {
		return copySubtree(resolved, dstPath)
	}
	return copyFile(resolved, dstPath, st)
}

func copySubtree(src, dst string) error {
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
		if info.Mode()&os.ModeSymlink != 0 {
			return copyEntry(path, target)
		}
		return copyFile(path, target, info)
	})
}

func copyFile(src, dst string, info os.FileInfo) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}

// NowMS returns the current time in epoch milliseconds, for callers that
// need a timestamp to pass into Install/Commit.
func NowMS() int64 { return time.Now().UnixMilli() }
