package syncengine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/barysiuk/agentsync/internal/core/format"
	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/platform"
	"github.com/barysiuk/agentsync/internal/core/tool"
)

// MCPSyncer reads, merges, and writes MCP server entries into each tool's
// own config file, via the Format Translator registered for that tool's
// dialect.
type MCPSyncer struct{}

// NewMCPSyncer returns an MCPSyncer. It is stateless: every call resolves
// its target file fresh via the Tool Registry and Path Resolver.
func NewMCPSyncer() *MCPSyncer { return &MCPSyncer{} }

// SyncToTool upserts srv into t's MCP config file under t's configured
// field, preserving every other key in the file. Windows command-wrapping
// is applied automatically when platform.IsWindows().
func (m *MCPSyncer) SyncToTool(srv model.MCPServer, t model.ToolEntry) (model.MCPSyncDetail, error) {
	path, err := tool.MCPConfigPathAbs(t)
	if err != nil {
		return model.MCPSyncDetail{}, err
	}
	if path == "" {
		return model.MCPSyncDetail{}, fmt.Errorf("tool %q does not support MCP servers", t.Key)
	}

	tr, err := format.For(t.MCPConfigFormat)
	if err != nil {
		return model.MCPSyncDetail{}, err
	}

	content, err := readOrEmpty(path)
	if err != nil {
		return model.MCPSyncDetail{}, fmt.Errorf("reading %s: %w", path, err)
	}

	updated, err := tr.Upsert(content, t.MCPField, srv.Name, srv, platform.IsWindows())
	if err != nil {
		return model.MCPSyncDetail{}, fmt.Errorf("building entry for %s in %s: %w", srv.Name, t.Key, err)
	}

	if err := writeAtomic(path, updated); err != nil {
		return model.MCPSyncDetail{}, fmt.Errorf("writing %s: %w", path, err)
	}

	return model.MCPSyncDetail{Status: model.StatusOK}, nil
}

// Unsync removes the entry named name from t's MCP config file.
func (m *MCPSyncer) Unsync(name string, t model.ToolEntry) error {
	path, err := tool.MCPConfigPathAbs(t)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	tr, err := format.For(t.MCPConfigFormat)
	if err != nil {
		return err
	}
	content, err := readOrEmpty(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	updated, err := tr.Remove(content, t.MCPField, name)
	if err != nil {
		return fmt.Errorf("removing %s from %s: %w", name, t.Key, err)
	}
	return writeAtomic(path, updated)
}

// ImportFromTool parses t's MCP config file and returns every entry found
// under its field as a candidate server record; the caller decides
// whether to skip duplicates by name or append them.
func (m *MCPSyncer) ImportFromTool(t model.ToolEntry) ([]format.Candidate, error) {
	path, err := tool.MCPConfigPathAbs(t)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	tr, err := format.For(t.MCPConfigFormat)
	if err != nil {
		return nil, err
	}
	content, err := readOrEmpty(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	found, err := tr.Read(content, t.MCPField)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	out := make([]format.Candidate, 0, len(found))
	for _, c := range found {
		out = append(out, c)
	}
	return out, nil
}

// readOrEmpty reads path, treating a missing file as empty content (an
// empty document, not an error); any other read failure propagates.
func readOrEmpty(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// writeAtomic creates path's parent directory if needed and writes data
// via write-temp-then-rename so a crash never leaves a half-written
// config file in place.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
