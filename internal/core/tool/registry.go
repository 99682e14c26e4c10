// Package tool implements the Tool Registry: a static table of built-in
// tools plus a dynamic, database-backed table of user-declared custom
// tools.
package tool

import (
	"fmt"
	"sort"

	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/pathutil"
	"github.com/barysiuk/agentsync/internal/core/store"
)

const customCollection = "tools"

// Registry resolves tool entries and answers installed/supports queries.
// Built-in entries are immutable compile-time constants; custom entries are
// loaded from st, a custom tool may declare a skills block, an MCP block,
// or both, and updating one block preserves the other.
type Registry struct {
	st store.Store
}

// New returns a Registry backed by st for custom tool declarations.
func New(st store.Store) *Registry {
	return &Registry{st: st}
}

// All returns every tool entry: built-ins first in declaration order, then
// custom tools sorted by key.
func (r *Registry) All() ([]model.ToolEntry, error) {
	custom, err := r.customTools()
	if err != nil {
		return nil, err
	}
	out := make([]model.ToolEntry, 0, len(builtins)+len(custom))
	out = append(out, builtins...)
	out = append(out, custom...)
	return out, nil
}

// SupportingSkills returns every tool entry that declares a skills block.
func (r *Registry) SupportingSkills() ([]model.ToolEntry, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	var out []model.ToolEntry
	for _, t := range all {
		if t.SupportsSkills() {
			out = append(out, t)
		}
	}
	return out, nil
}

// SupportingMCP returns every tool entry that declares an MCP block.
func (r *Registry) SupportingMCP() ([]model.ToolEntry, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	var out []model.ToolEntry
	for _, t := range all {
		if t.SupportsMCP() {
			out = append(out, t)
		}
	}
	return out, nil
}

// ByKey resolves a single tool entry by key, checking built-ins first.
func (r *Registry) ByKey(key string) (model.ToolEntry, bool, error) {
	for _, b := range builtins {
		if b.Key == key {
			return b, true, nil
		}
	}
	var entry model.ToolEntry
	err := r.st.Get(customCollection, key, &entry)
	if err == store.ErrNotFound {
		return model.ToolEntry{}, false, nil
	}
	if err != nil {
		return model.ToolEntry{}, false, err
	}
	return entry, true, nil
}

// IsBuiltin reports whether key names a compile-time tool entry.
func IsBuiltin(key string) bool {
	for _, b := range builtins {
		if b.Key == key {
			return true
		}
	}
	return false
}

// RegisterCustom creates or updates a custom tool entry. A custom tool may
// declare either a skills block or an MCP block or both; if entry omits one
// block and an existing record already has it, the existing block is
// preserved rather than clobbered.
func (r *Registry) RegisterCustom(entry model.ToolEntry) error {
	if IsBuiltin(entry.Key) {
		return fmt.Errorf("tool key %q collides with a built-in tool", entry.Key)
	}
	entry.Custom = true

	var existing model.ToolEntry
	err := r.st.Get(customCollection, entry.Key, &existing)
	switch err {
	case nil:
		if entry.RelativeSkillsDir == "" {
			entry.RelativeSkillsDir = existing.RelativeSkillsDir
			entry.RelativeDetectDir = existing.RelativeDetectDir
			entry.ForceCopy = existing.ForceCopy
		}
		if entry.MCPConfigPath == "" {
			entry.MCPConfigPath = existing.MCPConfigPath
			entry.MCPConfigFormat = existing.MCPConfigFormat
			entry.MCPField = existing.MCPField
		}
	case store.ErrNotFound:
		// First declaration; nothing to merge.
	default:
		return err
	}

	return r.st.Put(customCollection, entry.Key, entry)
}

// RemoveCustom deletes a custom tool declaration. Removing a built-in key
// returns an error (built-ins cannot be removed); removing an unknown key
// is a no-op.
func (r *Registry) RemoveCustom(key string) error {
	if IsBuiltin(key) {
		return fmt.Errorf("tool key %q is a built-in tool and cannot be removed", key)
	}
	return r.st.Delete(customCollection, key)
}

func (r *Registry) customTools() ([]model.ToolEntry, error) {
	keys, err := r.st.Keys(customCollection)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	out := make([]model.ToolEntry, 0, len(keys))
	for _, k := range keys {
		var entry model.ToolEntry
		if err := r.st.Get(customCollection, k, &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// IsInstalled reports whether t is installed on this machine. Custom tools
// are always considered installed — the user is declaring they exist, so
// detection is not gated on the detect-dir existing. Built-in tools are
// installed iff their resolved detect dir exists on disk.
func IsInstalled(t model.ToolEntry) bool {
	if t.Custom {
		return true
	}
	if t.RelativeDetectDir == "" {
		return true
	}
	dir, err := pathutil.Resolve(t.RelativeDetectDir)
	if err != nil {
		return false
	}
	return dirExists(dir)
}

// SkillsDir resolves a tool's configured skills directory to an absolute
// path. Returns "" if the tool has no skills block.
func SkillsDir(t model.ToolEntry) (string, error) {
	if !t.SupportsSkills() {
		return "", nil
	}
	return pathutil.Resolve(t.RelativeSkillsDir)
}

// MCPConfigPathAbs resolves a tool's MCP config file to an absolute path.
// Returns "" if the tool has no MCP block.
func MCPConfigPathAbs(t model.ToolEntry) (string, error) {
	if !t.SupportsMCP() {
		return "", nil
	}
	return pathutil.Resolve(t.MCPConfigPath)
}
