// Package installer composes the Central Skill Store and the Git Fetcher
// to materialize a skill from a local path, a Git URL, or a Git subtree
// selection.
package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/barysiuk/agentsync/internal/core/gitfetch"
	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/skillstore"
	"github.com/google/uuid"
)

// Installer materializes skills into the central store from various
// sources.
type Installer struct {
	skills  *skillstore.Store
	fetcher *gitfetch.Fetcher
}

// New returns an Installer backed by the given Central Store and Git
// Fetcher.
func New(skills *skillstore.Store, fetcher *gitfetch.Fetcher) *Installer {
	return &Installer{skills: skills, fetcher: fetcher}
}

// errMultiSkills is the reserved MULTI_SKILLS|<message> error form.
func errMultiSkills(candidates []string) error {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = filepath.Base(c)
	}
	return fmt.Errorf("MULTI_SKILLS|repository has more than one SKILL.md candidate: %s; specify a subpath", strings.Join(names, ", "))
}

// InstallLocal installs the skill directory at localPath into the central
// store. name is resolved from SKILL.md frontmatter, falling back to the
// directory's basename.
func (i *Installer) InstallLocal(localPath string, overwrite bool) (model.Skill, error) {
	name := resolveName(localPath, filepath.Base(localPath))
	id := uuid.NewString()
	sk, err := i.skills.Install(id, name, localPath, overwrite, skillstore.NowMS())
	if err != nil {
		return model.Skill{}, err
	}
	sk.SourceType = model.SourceLocal
	sk.SourceRef = localPath
	if err := i.skills.Save(sk); err != nil {
		return model.Skill{}, err
	}
	return sk, nil
}

// GitInstallOptions controls an installGit call. Subpath and Branch
// override what would otherwise be parsed out of Source (e.g. a
// "/tree/<branch>/<subpath>" suffix); leave them empty to use whatever
// Source encodes.
type GitInstallOptions struct {
	Source    string
	Branch    string
	Subpath   string
	Overwrite bool
}

// InstallGit fetches opts.Source and installs either the single SKILL.md
// candidate it finds, the explicit subpath the caller selected, or the
// repository root if it contains no SKILL.md anywhere. More than one
// candidate without an explicit subpath fails with MULTI_SKILLS.
func (i *Installer) InstallGit(ctx context.Context, opts GitInstallOptions) (model.Skill, error) {
	cloneURL, parsedBranch, parsedSubpath, err := gitfetch.ParseGitHubURL(opts.Source)
	if err != nil {
		return model.Skill{}, err
	}
	branch := opts.Branch
	if branch == "" {
		branch = parsedBranch
	}
	subpath := opts.Subpath
	if subpath == "" {
		subpath = parsedSubpath
	}

	repoDir, head, err := i.fetcher.Fetch(ctx, cloneURL, branch)
	if err != nil {
		return model.Skill{}, err
	}

	var sourceDir string
	if subpath != "" {
		sourceDir = filepath.Join(repoDir, filepath.FromSlash(subpath))
	} else {
		candidates, err := findCandidates(repoDir)
		if err != nil {
			return model.Skill{}, err
		}
		switch len(candidates) {
		case 0:
			sourceDir = repoDir
		case 1:
			sourceDir = candidates[0]
			rel, err := filepath.Rel(repoDir, sourceDir)
			if err == nil && rel != "." {
				subpath = filepath.ToSlash(rel)
			}
		default:
			return model.Skill{}, errMultiSkills(candidates)
		}
	}

	fallback := deriveNameFromURL(cloneURL)
	name := resolveName(sourceDir, fallback)
	id := uuid.NewString()

	sk, err := i.skills.Install(id, name, sourceDir, opts.Overwrite, skillstore.NowMS())
	if err != nil {
		return model.Skill{}, err
	}

	sk.SourceType = model.SourceGit
	sk.SourceRef = buildSourceRef(cloneURL, branch, subpath)
	sk.SourceRevision = head
	if err := i.skills.Save(sk); err != nil {
		return model.Skill{}, err
	}
	return sk, nil
}

// buildSourceRef produces the canonical source_ref a later
// update-from-source reproduces: the clone URL, plus "/tree/<branch>/<subpath>"
// when a subpath was used.
func buildSourceRef(cloneURL, branch, subpath string) string {
	if subpath == "" {
		return cloneURL
	}
	br := branch
	if br == "" {
		br = "main"
	}
	return fmt.Sprintf("%s/tree/%s/%s", cloneURL, br, subpath)
}

func deriveNameFromURL(cloneURL string) string {
	trimmed := strings.TrimSuffix(cloneURL, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 {
		return "skill"
	}
	return parts[len(parts)-1]
}

// UpdateFromSource re-fetches a Git-sourced skill's source_ref and swaps
// the central content, or re-copies a local source, reporting whether the
// content actually changed.
func (i *Installer) UpdateFromSource(ctx context.Context, sk model.Skill) (bool, model.Skill, error) {
	switch sk.SourceType {
	case model.SourceGit:
		cloneURL, branch, subpath, err := gitfetch.ParseGitHubURL(sk.SourceRef)
		if err != nil {
			return false, model.Skill{}, err
		}
		repoDir, head, err := i.fetcher.Fetch(ctx, cloneURL, branch)
		if err != nil {
			return false, model.Skill{}, err
		}
		sourceDir := repoDir
		if subpath != "" {
			sourceDir = filepath.Join(repoDir, filepath.FromSlash(subpath))
		}
		if err := materializeStaging(sourceDir, i.skills.StagingDir(sk.Name)); err != nil {
			return false, model.Skill{}, err
		}
		changed, updated, err := i.skills.Commit(sk.Name, skillstore.NowMS())
		if err != nil {
			return false, model.Skill{}, err
		}
		updated.SourceType = sk.SourceType
		updated.SourceRef = sk.SourceRef
		updated.SourceRevision = head
		if err := i.skills.Save(updated); err != nil {
			return false, model.Skill{}, err
		}
		return changed, updated, nil
	case model.SourceLocal:
		if err := materializeStaging(sk.SourceRef, i.skills.StagingDir(sk.Name)); err != nil {
			return false, model.Skill{}, err
		}
		changed, updated, err := i.skills.Commit(sk.Name, skillstore.NowMS())
		if err != nil {
			return false, model.Skill{}, err
		}
		updated.SourceType = sk.SourceType
		updated.SourceRef = sk.SourceRef
		if err := i.skills.Save(updated); err != nil {
			return false, model.Skill{}, err
		}
		return changed, updated, nil
	default:
		return false, model.Skill{}, fmt.Errorf("skill %q has no updatable source (imported)", sk.Name)
	}
}
