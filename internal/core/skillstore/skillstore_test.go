package skillstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/store"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	st := store.NewJSONFileStore(t.TempDir())
	s, err := New(root, st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, root
}

func writeSkillSource(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, name)
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "SKILL.md"), []byte("---\nname: "+name+"\n---\nbody"), 0o644); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestInstallThenGet(t *testing.T) {
	s, root := newTestStore(t)
	src := writeSkillSource(t, "alpha")

	sk, err := s.Install("id-1", "alpha", src, false, 1000)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if sk.CentralPath != "alpha" {
		t.Fatalf("CentralPath = %q, want relative", sk.CentralPath)
	}
	if _, err := os.Stat(filepath.Join(root, "alpha", "SKILL.md")); err != nil {
		t.Fatalf("installed file missing: %v", err)
	}

	got, ok, err := s.Get("alpha")
	if err != nil || !ok {
		t.Fatalf("Get: %v %v", ok, err)
	}
	if got.ContentHash == "" {
		t.Fatalf("expected non-empty content hash")
	}
}

func TestInstallCollisionWithoutOverwrite(t *testing.T) {
	s, _ := newTestStore(t)
	src := writeSkillSource(t, "alpha")

	if _, err := s.Install("id-1", "alpha", src, false, 1000); err != nil {
		t.Fatalf("first install: %v", err)
	}
	_, err := s.Install("id-2", "alpha", src, false, 1000)
	if err == nil {
		t.Fatalf("expected SKILL_EXISTS error on collision")
	}
	if err.Error() != "SKILL_EXISTS|alpha" {
		t.Fatalf("error = %q, want SKILL_EXISTS|alpha", err.Error())
	}
}

func TestInstallOverwriteSucceeds(t *testing.T) {
	s, _ := newTestStore(t)
	src := writeSkillSource(t, "alpha")
	if _, err := s.Install("id-1", "alpha", src, false, 1000); err != nil {
		t.Fatalf("first install: %v", err)
	}
	if _, err := s.Install("id-1", "alpha", src, true, 2000); err != nil {
		t.Fatalf("overwrite install: %v", err)
	}
}

func TestGitDirNeverCopied(t *testing.T) {
	s, root := newTestStore(t)
	src := writeSkillSource(t, "alpha")
	if err := os.MkdirAll(filepath.Join(src, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, ".git", "HEAD"), []byte("ref: refs/heads/main"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Install("id-1", "alpha", src, false, 1000); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "alpha", ".git")); !os.IsNotExist(err) {
		t.Fatalf(".git was copied into the central store")
	}
}

func TestCommitDetectsChange(t *testing.T) {
	s, _ := newTestStore(t)
	src := writeSkillSource(t, "alpha")
	if _, err := s.Install("id-1", "alpha", src, false, 1000); err != nil {
		t.Fatalf("Install: %v", err)
	}

	staging := s.StagingDir("alpha")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staging, "SKILL.md"), []byte("---\nname: alpha\n---\nnew body"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed, sk, err := s.Commit("alpha", 2000)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !changed {
		t.Fatalf("expected change to be detected")
	}
	if sk.UpdatedAt != 2000 {
		t.Fatalf("UpdatedAt = %d", sk.UpdatedAt)
	}
}

func TestDeleteRemovesDirAndRecord(t *testing.T) {
	s, root := newTestStore(t)
	src := writeSkillSource(t, "alpha")
	if _, err := s.Install("id-1", "alpha", src, false, 1000); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if err := s.Delete("alpha"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "alpha")); !os.IsNotExist(err) {
		t.Fatalf("central dir still exists after delete")
	}
	if _, ok, _ := s.Get("alpha"); ok {
		t.Fatalf("record still exists after delete")
	}
}

func TestResolvePathLegacyAbsolute(t *testing.T) {
	s, _ := newTestStore(t)
	abs := t.TempDir()
	resolved := s.ResolvePath(model.Skill{CentralPath: abs})
	if resolved != abs {
		t.Fatalf("ResolvePath legacy absolute = %q, want %q", resolved, abs)
	}
}
