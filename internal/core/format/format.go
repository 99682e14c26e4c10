// Package format translates between the engine's canonical MCP server shape
// and each tool's on-disk dialect: the default mcpServers JSON/JSONC schema,
// Codex's TOML tables, and OpenCode's array-command/environment/enabled
// dialect.
package format

import (
	"fmt"

	"github.com/barysiuk/agentsync/internal/core/cmdwrap"
	"github.com/barysiuk/agentsync/internal/core/model"
)

// Candidate is a server entry as read back out of a tool's config file,
// before it has been assigned an id or enabled-tools set.
type Candidate struct {
	Name   string
	Type   model.ServerType
	Config model.ServerConfig
}

// Translator converts between a tool's on-disk MCP dialect and the
// engine's canonical server shape. One Translator implementation per
// dialect is registered against a ToolEntry's
// MCPConfigFormat.
type Translator interface {
	// Read parses content and returns every server found under field,
	// keyed by name. An empty content is treated as an empty document,
	// never an error; malformed content is an error.
	Read(content []byte, field string) (map[string]Candidate, error)

	// Upsert reads content (treating empty as {}), replaces or adds the
	// entry named name under field with srv, and returns the new file
	// content. windows controls whether stdio commands needing the
	// shim are cmd /c wrapped.
	Upsert(content []byte, field, name string, srv model.MCPServer, windows bool) ([]byte, error)

	// Remove deletes the entry named name under field and returns the
	// new content. Removing an absent entry is not an error.
	Remove(content []byte, field, name string) ([]byte, error)
}

// For selects the Translator registered for a model.MCPFormat.
func For(f model.MCPFormat) (Translator, error) {
	switch f {
	case model.FormatJSON, model.FormatJSONC, "":
		return JSONTranslator{}, nil
	case model.FormatTOML:
		return TOMLTranslator{}, nil
	case model.FormatOpenCode:
		return OpenCodeTranslator{}, nil
	default:
		return nil, fmt.Errorf("format: unknown mcp config format %q", f)
	}
}

// detectType infers a server's transport when an explicit type field is
// absent: a command present means stdio, a url present means http.
func detectType(hasCommand, hasURL bool, explicit string) model.ServerType {
	switch explicit {
	case string(model.ServerHTTP):
		return model.ServerHTTP
	case string(model.ServerSSE):
		return model.ServerSSE
	case string(model.ServerStdio):
		return model.ServerStdio
	}
	if hasCommand {
		return model.ServerStdio
	}
	if hasURL {
		return model.ServerHTTP
	}
	return model.ServerStdio
}

// unwrapStdio normalizes a command+args pair read off disk, stripping any
// cmd /c wrapping so the canonical form the caller builds never carries it.
func unwrapStdio(command string, args []string) (string, []string) {
	e := cmdwrap.UnwrapCmdC(cmdwrap.Entry{Command: command, Args: args})
	return e.Command, e.Args
}

// wrapStdioIfWindows applies cmd /c wrapping only when windows is true and
// the command needs it, per the Command Normalizer's contract.
func wrapStdioIfWindows(command string, args []string, windows bool) (string, []string) {
	if !windows {
		return command, args
	}
	e := cmdwrap.WrapCmdC(cmdwrap.Entry{Command: command, Args: args})
	return e.Command, e.Args
}
