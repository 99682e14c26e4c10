package tool

import (
	"testing"

	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(store.NewJSONFileStore(t.TempDir()))
}

func TestAllIncludesBuiltinsAndCustom(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.RegisterCustom(model.ToolEntry{Key: "my_tool", DisplayName: "My Tool", RelativeSkillsDir: "~/.my_tool/skills"}); err != nil {
		t.Fatalf("RegisterCustom: %v", err)
	}

	all, err := r.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	var sawBuiltin, sawCustom bool
	for _, e := range all {
		if e.Key == "claude_code" {
			sawBuiltin = true
		}
		if e.Key == "my_tool" {
			sawCustom = true
		}
	}
	if !sawBuiltin || !sawCustom {
		t.Fatalf("expected both builtin and custom in %v", all)
	}
}

func TestRegisterCustomCollisionWithBuiltin(t *testing.T) {
	r := newTestRegistry(t)
	err := r.RegisterCustom(model.ToolEntry{Key: "cursor"})
	if err == nil {
		t.Fatalf("expected error registering custom tool colliding with builtin key")
	}
}

func TestRegisterCustomMergesBlocks(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.RegisterCustom(model.ToolEntry{Key: "t1", RelativeSkillsDir: "~/.t1/skills"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.RegisterCustom(model.ToolEntry{Key: "t1", MCPConfigPath: "~/.t1/mcp.json", MCPField: "mcpServers"}); err != nil {
		t.Fatalf("second register: %v", err)
	}

	entry, ok, err := r.ByKey("t1")
	if err != nil || !ok {
		t.Fatalf("ByKey: %v %v", ok, err)
	}
	if entry.RelativeSkillsDir != "~/.t1/skills" {
		t.Fatalf("skills block lost on merge: %+v", entry)
	}
	if entry.MCPConfigPath != "~/.t1/mcp.json" {
		t.Fatalf("mcp block not applied: %+v", entry)
	}
}

func TestRemoveCustomBuiltinRejected(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.RemoveCustom("cursor"); err == nil {
		t.Fatalf("expected error removing a builtin key")
	}
}

func TestIsInstalledCustomAlwaysTrue(t *testing.T) {
	entry := model.ToolEntry{Key: "t1", Custom: true, RelativeDetectDir: "~/definitely-does-not-exist-xyz"}
	if !IsInstalled(entry) {
		t.Fatalf("custom tool should always report installed")
	}
}

func TestSupportingSkillsAndMCP(t *testing.T) {
	r := newTestRegistry(t)
	skills, err := r.SupportingSkills()
	if err != nil {
		t.Fatalf("SupportingSkills: %v", err)
	}
	for _, e := range skills {
		if !e.SupportsSkills() {
			t.Fatalf("entry %+v returned by SupportingSkills without a skills block", e)
		}
	}

	mcp, err := r.SupportingMCP()
	if err != nil {
		t.Fatalf("SupportingMCP: %v", err)
	}
	for _, e := range mcp {
		if !e.SupportsMCP() {
			t.Fatalf("entry %+v returned by SupportingMCP without an mcp block", e)
		}
	}
}
