// Package onboarding scans every tool's skills directory (plus a handful
// of extra known sources and installed Claude-Code plugins) for
// pre-existing skills the user created outside the engine, surfacing
// conflicts where the same name means different content in different
// tools.
package onboarding

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/barysiuk/agentsync/internal/core/hash"
	"github.com/barysiuk/agentsync/internal/core/pathutil"
	"github.com/barysiuk/agentsync/internal/core/tool"
)

// InstalledPlugin describes one installed Claude Code plugin, as read from
// installed_plugins.json: a plugin id ("name@marketplace"), a display name
// derived from it, and the install path its skills (and its own .mcp.json,
// for MCP import) live under.
type InstalledPlugin struct {
	PluginID    string
	DisplayName string
	InstallPath string
}

// installedPluginsFile is installed_plugins.json's v2 shape: a map of
// plugin id to install entries (one per scope the plugin was installed
// into), the latest of which is entries[0].
type installedPluginsFile struct {
	Plugins map[string][]pluginInstallEntry `json:"plugins"`
}

type pluginInstallEntry struct {
	InstallPath string `json:"installPath"`
}

// ListInstalledPlugins reads installed_plugins.json and returns metadata
// for each installed plugin, taking the first (latest) install entry per
// plugin. A missing file, an unparseable file, or an install path that no
// longer exists on disk is never an error here — callers never have to
// special-case "no plugins installed".
func ListInstalledPlugins() ([]InstalledPlugin, error) {
	path, err := pathutil.Resolve(claudePluginsFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var file installedPluginsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil
	}

	var out []InstalledPlugin
	for pluginID, entries := range file.Plugins {
		if len(entries) == 0 || entries[0].InstallPath == "" {
			continue
		}
		installPath := entries[0].InstallPath
		if _, err := os.Stat(installPath); err != nil {
			continue
		}
		out = append(out, InstalledPlugin{
			PluginID:    pluginID,
			DisplayName: pluginDisplayName(pluginID),
			InstallPath: installPath,
		})
	}
	return out, nil
}

// pluginDisplayName strips the "@marketplace" suffix off a plugin id, e.g.
// "context7@claude-plugins-official" -> "context7".
func pluginDisplayName(pluginID string) string {
	if i := strings.IndexByte(pluginID, '@'); i >= 0 {
		return pluginID[:i]
	}
	return pluginID
}

// extraSources are hardcoded skill locations outside the Tool Registry
// that are still worth surfacing to the user during onboarding.
var extraSources = []string{"~/.cc-switch/skills"}

// claudePluginsFile lists every installed Claude-Code plugin.
const claudePluginsFile = "~/.claude/plugins/installed_plugins.json"

// Variant is one tool's copy of a candidate skill.
type Variant struct {
	Tool             string   `json:"tool"`
	Path             string   `json:"path"`
	IsSymlink        bool     `json:"is_symlink"`
	LinkTarget       string   `json:"link_target,omitempty"`
	Fingerprint      string   `json:"fingerprint"`
	ConflictingTools []string `json:"conflicting_tools,omitempty"`
}

// Group is every discovered variant of a single skill name.
type Group struct {
	Name        string    `json:"name"`
	Variants    []Variant `json:"variants"`
	HasConflict bool      `json:"has_conflict"`
}

// Plan is the result of a full onboarding scan.
type Plan struct {
	TotalToolsScanned int     `json:"total_tools_scanned"`
	TotalSkillsFound  int     `json:"total_skills_found"`
	Groups            []Group `json:"groups"`
}

// ManagedTarget identifies an existing sync target the engine already
// owns, so the scanner can exclude it from "discovered" results.
type ManagedTarget struct {
	Tool string
	Path string
}

// Scanner walks tool skill directories and extra sources for candidates.
type Scanner struct {
	registry    *tool.Registry
	centralRoot string
	managed     map[ManagedTarget]bool
}

// New returns a Scanner. centralRoot is the resolved absolute central
// store directory (candidates whose path falls inside it are excluded, by
// path prefix). managed is the current set of
// already-synced (tool, path) targets to exclude as "discovered".
func New(registry *tool.Registry, centralRoot string, managed []ManagedTarget) *Scanner {
	m := make(map[ManagedTarget]bool, len(managed))
	for _, t := range managed {
		m[t] = true
	}
	return &Scanner{registry: registry, centralRoot: centralRoot, managed: m}
}

type rawCandidate struct {
	tool       string
	path       string
	isSymlink  bool
	linkTarget string
}

// Scan performs a full onboarding scan. Callers are expected to bound this
// with a 30-second context timeout, since user-configured tool paths may
// be arbitrarily slow (network mounts, etc).
func (s *Scanner) Scan(ctx context.Context) (Plan, error) {
	sources, err := s.sources()
	if err != nil {
		return Plan{}, err
	}

	var raw []rawCandidate
	scanned := 0
	for _, src := range sources {
		select {
		case <-ctx.Done():
			return Plan{}, ctx.Err()
		default:
		}
		found, err := listCandidates(src.tool, src.dir)
		if err != nil {
			continue // an unreadable source is skipped, not fatal to the scan
		}
		scanned++
		raw = append(raw, found...)
	}

	pluginCandidates, pluginCount, err := s.scanClaudePlugins()
	if err == nil {
		raw = append(raw, pluginCandidates...)
		scanned += pluginCount
	}

	filtered := make([]rawCandidate, 0, len(raw))
	for _, c := range raw {
		if s.isInCentralStore(c.path) || (c.linkTarget != "" && s.isInCentralStore(c.linkTarget)) {
			continue
		}
		if s.managed[ManagedTarget{Tool: c.tool, Path: c.path}] {
			continue
		}
		filtered = append(filtered, c)
	}

	groups := groupByName(filtered)
	return Plan{
		TotalToolsScanned: scanned,
		TotalSkillsFound:  len(filtered),
		Groups:            groups,
	}, nil
}

type toolSource struct {
	tool string
	dir  string
}

func (s *Scanner) sources() ([]toolSource, error) {
	var out []toolSource

	entries, err := s.registry.SupportingSkills()
	if err != nil {
		return nil, err
	}
	for _, t := range entries {
		if !tool.IsInstalled(t) {
			continue
		}
		dir, err := tool.SkillsDir(t)
		if err != nil || dir == "" {
			continue
		}
		out = append(out, toolSource{tool: t.Key, dir: dir})
	}

	for _, stored := range extraSources {
		dir, err := pathutil.Resolve(stored)
		if err != nil {
			continue
		}
		out = append(out, toolSource{tool: "extra:" + stored, dir: dir})
	}

	return out, nil
}

// listCandidates lists dir's immediate subdirectories as candidates.
func listCandidates(toolKey, dir string) ([]rawCandidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []rawCandidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		c := rawCandidate{tool: toolKey, path: path}
		if info.Mode()&os.ModeSymlink != 0 {
			c.isSymlink = true
			if target, err := os.Readlink(path); err == nil {
				if !filepath.IsAbs(target) {
					target = filepath.Join(dir, target)
				}
				c.linkTarget = target
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Scanner) scanClaudePlugins() ([]rawCandidate, int, error) {
	plugins, err := ListInstalledPlugins()
	if err != nil {
		return nil, 0, err
	}
	var out []rawCandidate
	for _, p := range plugins {
		skillsDir := filepath.Join(p.InstallPath, "skills")
		found, err := listCandidates("claude_code_plugin:"+p.DisplayName, skillsDir)
		if err != nil {
			continue
		}
		out = append(out, found...)
	}
	return out, len(plugins), nil
}

func (s *Scanner) isInCentralStore(path string) bool {
	if s.centralRoot == "" {
		return false
	}
	root := filepath.ToSlash(s.centralRoot)
	p := filepath.ToSlash(path)
	return p == root || strings.HasPrefix(p, root+"/")
}

func groupByName(candidates []rawCandidate) []Group {
	byName := map[string][]rawCandidate{}
	var order []string
	for _, c := range candidates {
		name := filepath.Base(c.path)
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = append(byName[name], c)
	}

	groups := make([]Group, 0, len(order))
	for _, name := range order {
		members := byName[name]
		variants := make([]Variant, len(members))
		fingerprints := make([]string, len(members))
		for i, m := range members {
			fp, err := hash.Dir(m.path)
			if err != nil {
				fp = ""
			}
			fingerprints[i] = fp
			variants[i] = Variant{
				Tool:        m.tool,
				Path:        m.path,
				IsSymlink:   m.isSymlink,
				LinkTarget:  m.linkTarget,
				Fingerprint: fp,
			}
		}

		distinct := map[string]bool{}
		for _, fp := range fingerprints {
			distinct[fp] = true
		}
		hasConflict := len(distinct) > 1

		if hasConflict {
			for i := range variants {
				var conflicting []string
				for j := range variants {
					if i == j {
						continue
					}
					if fingerprints[j] != fingerprints[i] {
						conflicting = append(conflicting, variants[j].Tool)
					}
				}
				variants[i].ConflictingTools = conflicting
			}
		}

		groups = append(groups, Group{Name: name, Variants: variants, HasConflict: hasConflict})
	}
	return groups
}
