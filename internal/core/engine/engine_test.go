package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/store"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	st := store.NewJSONFileStore(filepath.Join(root, "db"))
	if err := SavePreferences(st, model.Preferences{
		CentralRepoPath:     filepath.Join(root, "central"),
		GitCacheCleanupDays: 30,
		GitCacheTTLSecs:     3600,
		InstalledTools:      map[string]bool{},
	}); err != nil {
		t.Fatal(err)
	}
	e, err := New(st, Config{
		GitCacheRoot: filepath.Join(root, "git-cache"),
		GitCacheTTL:  time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e, root
}

func registerSkillTool(t *testing.T, e *Engine, root, key string) string {
	t.Helper()
	dir := filepath.Join(root, "tools", key, "skills")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	detectDir := filepath.Join(root, "tools", key)
	if err := e.RegisterCustomTool(model.ToolEntry{
		Key:               key,
		DisplayName:       key,
		RelativeSkillsDir: dir,
		RelativeDetectDir: detectDir,
	}); err != nil {
		t.Fatal(err)
	}
	return dir
}

func registerMCPTool(t *testing.T, e *Engine, root, key, format string) string {
	t.Helper()
	configPath := filepath.Join(root, "tools", key, "config."+format)
	if err := e.RegisterCustomTool(model.ToolEntry{
		Key:             key,
		DisplayName:     key,
		MCPConfigPath:   configPath,
		MCPConfigFormat: model.MCPFormat(format),
		MCPField:        "mcpServers",
	}); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func installTestSkill(t *testing.T, e *Engine, root, name string) model.Skill {
	t.Helper()
	src := filepath.Join(root, "sources", name)
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "SKILL.md"), []byte("---\nname: "+name+"\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sk, err := e.InstallSkillLocal(src, false)
	if err != nil {
		t.Fatal(err)
	}
	return sk
}

func TestSyncSkillToToolPersistsDetail(t *testing.T) {
	e, root := newTestEngine(t)
	skillsDir := registerSkillTool(t, e, root, "toolA")
	sk := installTestSkill(t, e, root, "alpha")

	if _, err := e.SetSkillToolEnabled(sk.Name, "toolA", true); err != nil {
		t.Fatal(err)
	}
	detail, err := e.SyncSkillToTool(sk.Name, "toolA", false)
	if err != nil {
		t.Fatalf("SyncSkillToTool: %v", err)
	}
	if detail.Status != model.StatusOK {
		t.Fatalf("status = %v", detail.Status)
	}
	if _, err := os.Stat(filepath.Join(skillsDir, "alpha", "SKILL.md")); err != nil {
		t.Fatalf("expected synced file: %v", err)
	}

	reloaded, ok, err := e.Skills.Get("alpha")
	if err != nil || !ok {
		t.Fatalf("reloading skill: %v %v", ok, err)
	}
	if reloaded.SyncDetails["toolA"].Status != model.StatusOK {
		t.Fatalf("persisted sync_details = %+v", reloaded.SyncDetails)
	}
}

func TestSyncAllSkillsCoversEveryEnabledTool(t *testing.T) {
	e, root := newTestEngine(t)
	dirA := registerSkillTool(t, e, root, "toolA")
	dirB := registerSkillTool(t, e, root, "toolB")

	sk1 := installTestSkill(t, e, root, "one")
	sk2 := installTestSkill(t, e, root, "two")
	if _, err := e.SetSkillToolEnabled(sk1.Name, "toolA", true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetSkillToolEnabled(sk1.Name, "toolB", true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetSkillToolEnabled(sk2.Name, "toolB", true); err != nil {
		t.Fatal(err)
	}

	results, err := e.SyncAllSkills(context.Background())
	if err != nil {
		t.Fatalf("SyncAllSkills: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for _, name := range []string{filepath.Join(dirA, "one"), filepath.Join(dirB, "one"), filepath.Join(dirB, "two")} {
		if _, err := os.Stat(filepath.Join(name, "SKILL.md")); err != nil {
			t.Fatalf("expected %s synced: %v", name, err)
		}
	}

	reloaded1, _, _ := e.Skills.Get("one")
	if len(reloaded1.SyncDetails) != 2 {
		t.Fatalf("skill one sync_details = %+v", reloaded1.SyncDetails)
	}
	reloaded2, _, _ := e.Skills.Get("two")
	if len(reloaded2.SyncDetails) != 1 {
		t.Fatalf("skill two sync_details = %+v", reloaded2.SyncDetails)
	}
}

func TestSetSkillToolEnabledFalseUnsyncsImmediately(t *testing.T) {
	e, root := newTestEngine(t)
	skillsDir := registerSkillTool(t, e, root, "toolA")
	sk := installTestSkill(t, e, root, "alpha")

	if _, err := e.SetSkillToolEnabled(sk.Name, "toolA", true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SyncSkillToTool(sk.Name, "toolA", false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetSkillToolEnabled(sk.Name, "toolA", false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Lstat(filepath.Join(skillsDir, "alpha")); !os.IsNotExist(err) {
		t.Fatalf("expected target removed after disabling tool")
	}
	reloaded, _, _ := e.Skills.Get("alpha")
	if _, ok := reloaded.SyncDetails["toolA"]; ok {
		t.Fatalf("expected sync_details entry removed, got %+v", reloaded.SyncDetails)
	}
}

func TestDeleteSkillRemovesCentralDirAndTargets(t *testing.T) {
	e, root := newTestEngine(t)
	skillsDir := registerSkillTool(t, e, root, "toolA")
	sk := installTestSkill(t, e, root, "alpha")
	if _, err := e.SetSkillToolEnabled(sk.Name, "toolA", true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SyncSkillToTool(sk.Name, "toolA", false); err != nil {
		t.Fatal(err)
	}

	if errs := e.DeleteSkill(sk.Name); len(errs) != 0 {
		t.Fatalf("DeleteSkill errors: %v", errs)
	}
	if _, err := os.Stat(e.Skills.ResolvePath(sk)); !os.IsNotExist(err) {
		t.Fatalf("expected central dir removed")
	}
	if _, err := os.Lstat(filepath.Join(skillsDir, "alpha")); !os.IsNotExist(err) {
		t.Fatalf("expected tool-side target removed")
	}
	if _, ok, _ := e.Skills.Get(sk.Name); ok {
		t.Fatalf("expected record deleted")
	}
}

func TestSyncServerToToolAndImportRoundTrip(t *testing.T) {
	e, root := newTestEngine(t)
	configPath := registerMCPTool(t, e, root, "toolA", "json")

	srv, err := e.CreateMCPServer(model.MCPServer{
		Name:       "docs",
		ServerType: model.ServerStdio,
		ServerConfig: model.ServerConfig{
			Command: "npx",
			Args:    []string{"-y", "server-filesystem"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetServerToolEnabled(srv.Name, "toolA", true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SyncServerToTool(srv.Name, "toolA"); err != nil {
		t.Fatalf("SyncServerToTool: %v", err)
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file created: %v", err)
	}

	if err := e.MCP.Delete(srv.Name); err != nil {
		t.Fatal(err)
	}
	imported, err := e.ImportMCPFromTool("toolA")
	if err != nil {
		t.Fatalf("ImportMCPFromTool: %v", err)
	}
	if len(imported) != 1 || imported[0].Name != "docs" {
		t.Fatalf("imported = %+v", imported)
	}
	if imported[0].ServerConfig.Command != "npx" {
		t.Fatalf("imported command = %q", imported[0].ServerConfig.Command)
	}
}

func TestSyncDisabledToOpenCodeSkipsTool(t *testing.T) {
	e, root := newTestEngine(t)
	configPath := registerMCPTool(t, e, root, "opencode", "json")

	prefs, err := LoadPreferences(e.st)
	if err != nil {
		t.Fatal(err)
	}
	prefs.SyncDisabledToOpenCode = true
	if err := SavePreferences(e.st, prefs); err != nil {
		t.Fatal(err)
	}

	srv, err := e.CreateMCPServer(model.MCPServer{Name: "docs", ServerType: model.ServerStdio, ServerConfig: model.ServerConfig{Command: "npx"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetServerToolEnabled(srv.Name, "opencode", true); err != nil {
		t.Fatal(err)
	}

	if _, err := e.SyncServerToTool(srv.Name, "opencode"); err != nil {
		t.Fatalf("SyncServerToTool: %v", err)
	}
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Fatalf("expected opencode config untouched when sync_disabled_to_opencode is set")
	}

	results, err := e.SyncAllMCP(context.Background())
	if err != nil {
		t.Fatalf("SyncAllMCP: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %+v, want none (opencode skipped)", results)
	}
}

func TestSyncAllMCPCoversEveryEnabledTool(t *testing.T) {
	e, root := newTestEngine(t)
	pathA := registerMCPTool(t, e, root, "toolA", "json")
	pathB := registerMCPTool(t, e, root, "toolB", "json")

	srv, err := e.CreateMCPServer(model.MCPServer{
		Name:         "docs",
		ServerType:   model.ServerStdio,
		ServerConfig: model.ServerConfig{Command: "npx"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetServerToolEnabled(srv.Name, "toolA", true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetServerToolEnabled(srv.Name, "toolB", true); err != nil {
		t.Fatal(err)
	}

	results, err := e.SyncAllMCP(context.Background())
	if err != nil {
		t.Fatalf("SyncAllMCP: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, p := range []string{pathA, pathB} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s written: %v", p, err)
		}
	}
}

// TestImportMCPFromClaudeCodePlugins covers the Claude Code plugin import
// path: each installed plugin's own .mcp.json is a flat map (no wrapper
// field), distinct from claude_code's own ~/.claude.json, and servers
// found there are enabled for claude_code and tagged with their plugin.
func TestImportMCPFromClaudeCodePlugins(t *testing.T) {
	e, _ := newTestEngine(t)

	home := t.TempDir()
	t.Setenv("HOME", home)

	installPath := filepath.Join(home, "plugins", "context7")
	if err := os.MkdirAll(installPath, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(installPath, ".mcp.json"), []byte(`{
		"context7-docs": {"type": "http", "url": "https://example.com/mcp"}
	}`), 0o644); err != nil {
		t.Fatal(err)
	}

	pluginsFile := filepath.Join(home, ".claude", "plugins", "installed_plugins.json")
	if err := os.MkdirAll(filepath.Dir(pluginsFile), 0o755); err != nil {
		t.Fatal(err)
	}
	content := `{
		"version": 2,
		"plugins": {
			"context7@claude-plugins-official": [
				{"scope": "user", "installPath": "` + installPath + `"}
			]
		}
	}`
	if err := os.WriteFile(pluginsFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	created, err := e.ImportMCPFromClaudeCodePlugins()
	if err != nil {
		t.Fatalf("ImportMCPFromClaudeCodePlugins: %v", err)
	}
	if len(created) != 1 || created[0].Name != "context7-docs" {
		t.Fatalf("created = %+v", created)
	}
	if !created[0].EnabledTools["claude_code"] {
		t.Fatalf("expected claude_code enabled, got %+v", created[0].EnabledTools)
	}
	if created[0].ServerType != model.ServerHTTP {
		t.Fatalf("server type = %q, want http", created[0].ServerType)
	}

	// A second run must not duplicate the already-managed server.
	created, err = e.ImportMCPFromClaudeCodePlugins()
	if err != nil {
		t.Fatalf("ImportMCPFromClaudeCodePlugins (2nd run): %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("2nd run created = %+v, want none", created)
	}
}
