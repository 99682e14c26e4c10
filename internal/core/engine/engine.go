// Package engine is the Sync Engine facade: it wires the Path Resolver,
// Tool Registry, Central Skill Store, Git Fetcher, Skill Installer, MCP
// Store, both Sync Engines, the Onboarding Scanner, and the WSL Bridge
// into the single coordinator the CLI (and, in the original system, the
// desktop UI) drives. It owns no behavior of its own beyond orchestration
// and persistence bookkeeping — every real operation is delegated to the
// package that implements it.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/barysiuk/agentsync/internal/core/format"
	"github.com/barysiuk/agentsync/internal/core/gitfetch"
	"github.com/barysiuk/agentsync/internal/core/installer"
	"github.com/barysiuk/agentsync/internal/core/mcpstore"
	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/namematch"
	"github.com/barysiuk/agentsync/internal/core/onboarding"
	"github.com/barysiuk/agentsync/internal/core/skillstore"
	"github.com/barysiuk/agentsync/internal/core/store"
	"github.com/barysiuk/agentsync/internal/core/syncengine"
	"github.com/barysiuk/agentsync/internal/core/tool"
	"github.com/barysiuk/agentsync/internal/core/wslbridge"
	"golang.org/x/sync/errgroup"
)

const (
	preferencesCollection = "preferences"
	preferencesKey         = "singleton"
	wslConfigCollection    = "wsl_config"
	wslConfigKey           = "singleton"

	// fanOutLimit bounds the number of tools a sync_all batch processes
	// concurrently; within a single tool, items stay strictly sequential
	// order within that tool is still deterministic.
	fanOutLimit = 4
)

// Engine is the facade every caller (CLI, and in the original system the
// desktop UI) drives.
type Engine struct {
	st store.Store

	Skills   *skillstore.Store
	MCP      *mcpstore.Store
	Registry *tool.Registry
	Fetcher  *gitfetch.Fetcher
	Installer *installer.Installer

	skillSync *syncengine.SkillSyncer
	mcpSync   *syncengine.MCPSyncer
	scanner   *onboarding.Scanner

	wsl *wslbridge.Bridge // nil unless WSL bridging was configured
}

// Config bundles what New needs beyond the document store: the Git
// Fetcher's cache root and freshness TTL, both normally sourced from
// Preferences once they've been loaded once.
type Config struct {
	GitCacheRoot string
	GitCacheTTL  time.Duration
	ProxyURL     string
}

// New constructs an Engine over st, resolving the central store root from
// whatever Preferences currently says (the default record, which is not
// persisted, on first run).
func New(st store.Store, cfg Config) (*Engine, error) {
	prefs, err := LoadPreferences(st)
	if err != nil {
		return nil, err
	}

	skills, err := skillstore.New(prefs.CentralRepoPath, st)
	if err != nil {
		return nil, fmt.Errorf("resolving central store: %w", err)
	}
	registry := tool.New(st)
	fetcher := gitfetch.New(cfg.GitCacheRoot, cfg.GitCacheTTL, cfg.ProxyURL)

	e := &Engine{
		st:        st,
		Skills:    skills,
		MCP:       mcpstore.New(st),
		Registry:  registry,
		Fetcher:   fetcher,
		Installer: installer.New(skills, fetcher),
		skillSync: syncengine.NewSkillSyncer(skills),
		mcpSync:   syncengine.NewMCPSyncer(),
		scanner:   onboarding.New(registry, skills.Root(), nil),
	}
	return e, nil
}

// EnableWSLBridge attaches a WSL Bridge to the engine for the configured
// distro, logging subprocess transcripts to logPath. Callers should only
// do this on platform.IsWindows() hosts with WSL configured as enabled.
func (e *Engine) EnableWSLBridge(distro, logPath string) {
	e.wsl = wslbridge.New(distro, logPath)
}

// LoadPreferences returns the persisted Preferences record, or the
// default record (not yet persisted) on first run.
func LoadPreferences(st store.Store) (model.Preferences, error) {
	var prefs model.Preferences
	err := st.Get(preferencesCollection, preferencesKey, &prefs)
	if err == store.ErrNotFound {
		return model.DefaultPreferences(), nil
	}
	if err != nil {
		return model.Preferences{}, err
	}
	return prefs, nil
}

// SavePreferences persists prefs as the singleton record.
func SavePreferences(st store.Store, prefs model.Preferences) error {
	return st.Put(preferencesCollection, preferencesKey, prefs)
}

// LoadWSLConfig returns the persisted WSL sync config, or its zero value
// (disabled) on first run.
func LoadWSLConfig(st store.Store) (wslbridge.Config, error) {
	var cfg wslbridge.Config
	err := st.Get(wslConfigCollection, wslConfigKey, &cfg)
	if err == store.ErrNotFound {
		return wslbridge.Config{}, nil
	}
	return cfg, err
}

// SaveWSLConfig persists the WSL sync config singleton.
func SaveWSLConfig(st store.Store, cfg wslbridge.Config) error {
	return st.Put(wslConfigCollection, wslConfigKey, cfg)
}

// now returns the current time in epoch milliseconds, matching
// skillstore.NowMS's clock so skill and server timestamps stay comparable.
func now() int64 { return skillstore.NowMS() }

// --- Skills ---

// InstallSkillLocal installs the skill directory at localPath.
func (e *Engine) InstallSkillLocal(localPath string, overwrite bool) (model.Skill, error) {
	return e.Installer.InstallLocal(localPath, overwrite)
}

// InstallSkillGit installs a skill from a Git source.
func (e *Engine) InstallSkillGit(ctx context.Context, opts installer.GitInstallOptions) (model.Skill, error) {
	return e.Installer.InstallGit(ctx, opts)
}

// UpdateSkillFromSource re-materializes sk from its recorded source.
func (e *Engine) UpdateSkillFromSource(ctx context.Context, name string) (bool, model.Skill, error) {
	sk, ok, err := e.Skills.Get(name)
	if err != nil {
		return false, model.Skill{}, err
	}
	if !ok {
		return false, model.Skill{}, fmt.Errorf("skill %q not found", name)
	}
	return e.Installer.UpdateFromSource(ctx, sk)
}

// SetSkillToolEnabled flips whether toolKey is in sk's enabled_tools set.
// Disabling a tool also unsyncs the on-disk target immediately, per the
// Sync Engine's orphan-removal responsibility; enabling only flags intent
// — propagation happens on the next explicit sync.
func (e *Engine) SetSkillToolEnabled(name, toolKey string, enabled bool) (model.Skill, error) {
	sk, ok, err := e.Skills.Get(name)
	if err != nil {
		return model.Skill{}, err
	}
	if !ok {
		return model.Skill{}, fmt.Errorf("skill %q not found", name)
	}
	if sk.EnabledTools == nil {
		sk.EnabledTools = map[string]bool{}
	}

	if enabled {
		sk.EnabledTools[toolKey] = true
	} else {
		delete(sk.EnabledTools, toolKey)
		if t, found, terr := e.Registry.ByKey(toolKey); terr == nil && found {
			if uerr := e.skillSync.Unsync(sk, t); uerr == nil {
				delete(sk.SyncDetails, toolKey)
			}
		}
	}
	sk.UpdatedAt = now()
	if err := e.Skills.Save(sk); err != nil {
		return model.Skill{}, err
	}
	return sk, nil
}

// SyncSkillToTool propagates a single skill to a single tool and persists
// the outcome into its sync_details.
func (e *Engine) SyncSkillToTool(name, toolKey string, overwrite bool) (model.SkillSyncDetail, error) {
	sk, ok, err := e.Skills.Get(name)
	if err != nil {
		return model.SkillSyncDetail{}, err
	}
	if !ok {
		return model.SkillSyncDetail{}, fmt.Errorf("skill %q not found", name)
	}
	t, found, err := e.Registry.ByKey(toolKey)
	if err != nil {
		return model.SkillSyncDetail{}, err
	}
	if !found {
		return model.SkillSyncDetail{}, fmt.Errorf("tool %q not found", toolKey)
	}

	detail, syncErr := e.skillSync.SyncToTool(sk, t, overwrite)
	if syncErr != nil {
		detail = model.SkillSyncDetail{Status: model.StatusError, ErrorMessage: syncErr.Error()}
	} else {
		detail.SyncedAt = now()
	}
	if sk.SyncDetails == nil {
		sk.SyncDetails = map[string]model.SkillSyncDetail{}
	}
	sk.SyncDetails[toolKey] = detail
	sk.LastSyncAt = now()
	if err := e.Skills.Save(sk); err != nil {
		return detail, err
	}
	return detail, syncErr
}

// DeleteSkill unsyncs every recorded target, removes the central
// directory, and deletes the record. Per-target removal failures are
// collected rather than aborting the whole delete.
func (e *Engine) DeleteSkill(name string) []error {
	sk, ok, err := e.Skills.Get(name)
	if err != nil {
		return []error{err}
	}
	if !ok {
		return nil
	}

	var errs []error
	for toolKey := range sk.SyncDetails {
		t, found, terr := e.Registry.ByKey(toolKey)
		if terr != nil || !found {
			continue
		}
		if uerr := e.skillSync.Unsync(sk, t); uerr != nil {
			errs = append(errs, fmt.Errorf("unsyncing %s from %s: %w", name, toolKey, uerr))
		}
	}
	if err := e.Skills.Delete(name); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// SkillSyncResult is one (skill, tool) outcome from a sync_all batch.
type SkillSyncResult struct {
	SkillName string
	ToolKey   string
	Detail    model.SkillSyncDetail
}

// SyncAllSkills walks every enabled-tool skills × tool pair in stored
// sort order, fanning out across tools with bounded concurrency while
// keeping each tool's own batch strictly sequential.
func (e *Engine) SyncAllSkills(ctx context.Context) ([]SkillSyncResult, error) {
	skills, err := e.Skills.All()
	if err != nil {
		return nil, err
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].SortIndex < skills[j].SortIndex })

	tools, err := e.Registry.SupportingSkills()
	if err != nil {
		return nil, err
	}

	type outcome struct {
		skillName string
		toolKey   string
		detail    model.SkillSyncDetail
	}
	outcomes := make(chan outcome, len(skills)*len(tools)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, t := range tools {
		t := t
		g.Go(func() error {
			for _, sk := range skills {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if !sk.EnabledTools[t.Key] {
					continue
				}
				detail, syncErr := e.skillSync.SyncToTool(sk, t, false)
				if syncErr != nil {
					detail = model.SkillSyncDetail{Status: model.StatusError, ErrorMessage: syncErr.Error()}
				} else {
					detail.SyncedAt = now()
				}
				outcomes <- outcome{skillName: sk.Name, toolKey: t.Key, detail: detail}
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(outcomes)
	}()

	byName := make(map[string][]outcome, len(skills))
	for o := range outcomes {
		byName[o.skillName] = append(byName[o.skillName], o)
	}
	if err := <-waitErr; err != nil {
		return nil, err
	}

	var results []SkillSyncResult
	for _, sk := range skills {
		os, ok := byName[sk.Name]
		if !ok {
			continue
		}
		if sk.SyncDetails == nil {
			sk.SyncDetails = map[string]model.SkillSyncDetail{}
		}
		for _, o := range os {
			sk.SyncDetails[o.toolKey] = o.detail
			results = append(results, SkillSyncResult{SkillName: sk.Name, ToolKey: o.toolKey, Detail: o.detail})
		}
		for toolKey := range sk.SyncDetails {
			if !sk.EnabledTools[toolKey] {
				delete(sk.SyncDetails, toolKey)
			}
		}
		sk.LastSyncAt = now()
		if err := e.Skills.Save(sk); err != nil {
			return results, err
		}
	}
	return results, nil
}

// --- MCP servers ---

// CreateMCPServer inserts a new server record.
func (e *Engine) CreateMCPServer(srv model.MCPServer) (model.MCPServer, error) {
	return e.MCP.Create(srv)
}

// SetServerToolEnabled flips whether toolKey is in srv's enabled_tools
// set, unsyncing immediately on disable.
func (e *Engine) SetServerToolEnabled(name, toolKey string, enabled bool) (model.MCPServer, error) {
	srv, err := e.MCP.ToggleTool(name, toolKey, enabled)
	if err != nil {
		return model.MCPServer{}, err
	}
	if !enabled {
		if t, found, terr := e.Registry.ByKey(toolKey); terr == nil && found {
			if uerr := e.mcpSync.Unsync(name, t); uerr == nil {
				_ = e.MCP.DeleteSyncDetail(name, toolKey)
			}
		}
	}
	return srv, nil
}

// openCodeToolKey is the built-in Tool Registry key gated by
// Preferences.SyncDisabledToOpenCode.
const openCodeToolKey = "opencode"

// skipOpenCode reports whether toolKey should be excluded from MCP sync
// because the user has set sync_disabled_to_opencode.
func (e *Engine) skipOpenCode(toolKey string) (bool, error) {
	if toolKey != openCodeToolKey {
		return false, nil
	}
	prefs, err := LoadPreferences(e.st)
	if err != nil {
		return false, err
	}
	return prefs.SyncDisabledToOpenCode, nil
}

// SyncServerToTool propagates a single server to a single tool and
// persists the outcome into its sync_details. If toolKey is OpenCode and
// Preferences.SyncDisabledToOpenCode is set, this is a no-op: OpenCode is
// skipped rather than synced.
func (e *Engine) SyncServerToTool(name, toolKey string) (model.MCPSyncDetail, error) {
	srv, ok, err := e.MCP.Get(name)
	if err != nil {
		return model.MCPSyncDetail{}, err
	}
	if !ok {
		return model.MCPSyncDetail{}, fmt.Errorf("mcp server %q not found", name)
	}
	t, found, err := e.Registry.ByKey(toolKey)
	if err != nil {
		return model.MCPSyncDetail{}, err
	}
	if !found {
		return model.MCPSyncDetail{}, fmt.Errorf("tool %q not found", toolKey)
	}
	if skip, err := e.skipOpenCode(toolKey); err != nil {
		return model.MCPSyncDetail{}, err
	} else if skip {
		return model.MCPSyncDetail{}, nil
	}

	detail, syncErr := e.mcpSync.SyncToTool(srv, t)
	if syncErr != nil {
		detail = model.MCPSyncDetail{Status: model.StatusError, ErrorMessage: syncErr.Error()}
	} else {
		detail.SyncedAt = now()
	}
	if err := e.MCP.SetSyncDetail(name, toolKey, detail); err != nil {
		return detail, err
	}
	return detail, syncErr
}

// MCPSyncResult is one (server, tool) outcome from a sync_all batch.
type MCPSyncResult struct {
	ServerName string
	ToolKey    string
	Detail     model.MCPSyncDetail
}

// SyncAllMCP walks every enabled-tool servers × tool pair in stored sort
// order, with the same bounded fan-out-by-tool shape as SyncAllSkills.
func (e *Engine) SyncAllMCP(ctx context.Context) ([]MCPSyncResult, error) {
	servers, err := e.MCP.All()
	if err != nil {
		return nil, err
	}
	supporting, err := e.Registry.SupportingMCP()
	if err != nil {
		return nil, err
	}
	tools := make([]model.ToolEntry, 0, len(supporting))
	for _, t := range supporting {
		if skip, err := e.skipOpenCode(t.Key); err != nil {
			return nil, err
		} else if skip {
			continue
		}
		tools = append(tools, t)
	}

	type outcome struct {
		serverName string
		toolKey    string
		detail     model.MCPSyncDetail
	}
	outcomes := make(chan outcome, len(servers)*len(tools)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, t := range tools {
		t := t
		g.Go(func() error {
			for _, srv := range servers {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if !srv.EnabledTools[t.Key] {
					continue
				}
				detail, syncErr := e.mcpSync.SyncToTool(srv, t)
				if syncErr != nil {
					detail = model.MCPSyncDetail{Status: model.StatusError, ErrorMessage: syncErr.Error()}
				} else {
					detail.SyncedAt = now()
				}
				outcomes <- outcome{serverName: srv.Name, toolKey: t.Key, detail: detail}
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(outcomes)
	}()

	var results []MCPSyncResult
	for o := range outcomes {
		if err := e.MCP.SetSyncDetail(o.serverName, o.toolKey, o.detail); err != nil {
			return results, err
		}
		results = append(results, MCPSyncResult{ServerName: o.serverName, ToolKey: o.toolKey, Detail: o.detail})
	}
	if err := <-waitErr; err != nil {
		return results, err
	}
	return results, nil
}

// ImportMCPFromTool reads every server entry out of toolKey's config file
// and creates a new record for any candidate whose name isn't already
// managed; existing records are left untouched (the caller re-runs with
// an explicit overwrite path if they want to replace one).
func (e *Engine) ImportMCPFromTool(toolKey string) ([]model.MCPServer, error) {
	t, found, err := e.Registry.ByKey(toolKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("tool %q not found", toolKey)
	}
	candidates, err := e.mcpSync.ImportFromTool(t)
	if err != nil {
		return nil, err
	}

	var created []model.MCPServer
	for _, c := range candidates {
		if _, ok, err := e.MCP.Get(c.Name); err != nil {
			return created, err
		} else if ok {
			continue
		}
		srv, err := e.MCP.Create(model.MCPServer{
			Name:         c.Name,
			ServerType:   c.Type,
			ServerConfig: c.Config,
			EnabledTools: map[string]bool{t.Key: true},
		})
		if err != nil {
			return created, err
		}
		created = append(created, srv)
	}
	return created, nil
}

// claudeCodeToolKey is the built-in Tool Registry key that Claude Code
// plugin servers get enabled for on import.
const claudeCodeToolKey = "claude_code"

// ImportMCPFromClaudeCodePlugins reads every installed Claude Code
// plugin's own .mcp.json — a flat map with no wrapper field, unlike
// claude_code's own ~/.claude.json — and creates a new managed record for
// any server name not already managed, enabled for claude_code and tagged
// with the plugin it came from.
func (e *Engine) ImportMCPFromClaudeCodePlugins() ([]model.MCPServer, error) {
	plugins, err := onboarding.ListInstalledPlugins()
	if err != nil {
		return nil, err
	}

	var created []model.MCPServer
	for _, p := range plugins {
		data, err := os.ReadFile(filepath.Join(p.InstallPath, ".mcp.json"))
		if err != nil {
			continue
		}
		candidates, err := format.ReadFlatJSON(data)
		if err != nil {
			continue
		}
		for _, c := range candidates {
			if _, ok, err := e.MCP.Get(c.Name); err != nil {
				return created, err
			} else if ok {
				continue
			}
			srv, err := e.MCP.Create(model.MCPServer{
				Name:         c.Name,
				ServerType:   c.Type,
				ServerConfig: c.Config,
				EnabledTools: map[string]bool{claudeCodeToolKey: true},
				Tags:         []string{"claude_code_plugin:" + p.DisplayName},
			})
			if err != nil {
				return created, err
			}
			created = append(created, srv)
		}
	}
	return created, nil
}

// PreviewMCPImportCandidates returns every server toolKey's config file
// defines, without creating any records — the raw list ImportMCPFromTool
// and ImportMCPFromToolNamed filter and create from.
func (e *Engine) PreviewMCPImportCandidates(toolKey string) ([]format.Candidate, error) {
	t, found, err := e.Registry.ByKey(toolKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("tool %q not found", toolKey)
	}
	return e.mcpSync.ImportFromTool(t)
}

// ImportMCPFromToolNamed imports exactly the toolKey candidate whose name
// best fuzzy-matches query, for interactive name resolution during MCP
// import.
func (e *Engine) ImportMCPFromToolNamed(toolKey, query string) (model.MCPServer, error) {
	candidates, err := e.PreviewMCPImportCandidates(toolKey)
	if err != nil {
		return model.MCPServer{}, err
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	best, ok := namematch.Resolve(query, names)
	if !ok {
		return model.MCPServer{}, fmt.Errorf("no importable mcp server on %s matches %q", toolKey, query)
	}
	for _, c := range candidates {
		if c.Name != best {
			continue
		}
		if _, exists, err := e.MCP.Get(c.Name); err != nil {
			return model.MCPServer{}, err
		} else if exists {
			return model.MCPServer{}, fmt.Errorf("mcp server %q is already managed", c.Name)
		}
		return e.MCP.Create(model.MCPServer{
			Name:         c.Name,
			ServerType:   c.Type,
			ServerConfig: c.Config,
			EnabledTools: map[string]bool{toolKey: true},
		})
	}
	return model.MCPServer{}, fmt.Errorf("candidate %q vanished mid-import", best)
}

// --- Onboarding ---

// ScanForOnboarding runs a bounded onboarding scan; callers should pass a
// context with a 30-second deadline.
func (e *Engine) ScanForOnboarding(ctx context.Context) (onboarding.Plan, error) {
	return e.scanner.Scan(ctx)
}

// ResolveOnboardingSkill runs an onboarding scan and fuzzy-matches query
// against the discovered group names, returning the best-matching group so
// a caller can present its variants or install one of them directly.
func (e *Engine) ResolveOnboardingSkill(ctx context.Context, query string) (onboarding.Group, error) {
	plan, err := e.ScanForOnboarding(ctx)
	if err != nil {
		return onboarding.Group{}, err
	}
	names := make([]string, len(plan.Groups))
	for i, g := range plan.Groups {
		names[i] = g.Name
	}
	best, ok := namematch.Resolve(query, names)
	if !ok {
		return onboarding.Group{}, fmt.Errorf("no onboarding-discovered skill matches %q", query)
	}
	for _, g := range plan.Groups {
		if g.Name == best {
			return g, nil
		}
	}
	return onboarding.Group{}, fmt.Errorf("onboarding group %q vanished mid-scan", best)
}

// --- Custom tools ---

// RegisterCustomTool adds or updates a user-declared tool.
func (e *Engine) RegisterCustomTool(entry model.ToolEntry) error {
	return e.Registry.RegisterCustom(entry)
}

// RemoveCustomTool deletes a user-declared tool.
func (e *Engine) RemoveCustomTool(key string) error {
	return e.Registry.RemoveCustom(key)
}

// --- WSL bridge ---

// SyncWSL mirrors every skill enabled for at least one WSL-relevant tool
// into the configured distro, re-links the per-tool symlinks inside it,
// and prunes stale mirror entries. It is a no-op if EnableWSLBridge was
// never called.
func (e *Engine) SyncWSL(ctx context.Context, linuxSkillsDirs map[string]string) error {
	if e.wsl == nil {
		return nil
	}
	skills, err := e.Skills.All()
	if err != nil {
		return err
	}

	keep := make([]string, 0, len(skills))
	for _, sk := range skills {
		relevantDirs := make(map[string]string, len(sk.EnabledTools))
		for toolKey := range sk.EnabledTools {
			if dir, ok := linuxSkillsDirs[toolKey]; ok {
				relevantDirs[toolKey] = dir
			}
		}
		if len(relevantDirs) == 0 {
			continue
		}
		keep = append(keep, sk.Name)
		source := e.Skills.ResolvePath(sk)
		if _, err := e.wsl.SyncSkill(ctx, sk, source); err != nil {
			return fmt.Errorf("mirroring skill %s into wsl: %w", sk.Name, err)
		}
		for toolKey, dir := range relevantDirs {
			if err := e.wsl.EnsureToolSymlink(ctx, dir, sk.Name); err != nil {
				return fmt.Errorf("linking skill %s for %s in wsl: %w", sk.Name, toolKey, err)
			}
		}
	}
	return e.wsl.PruneSkills(ctx, keep)
}
