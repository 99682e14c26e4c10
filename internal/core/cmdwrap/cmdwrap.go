// Package cmdwrap implements the Windows cmd /c wrapping contract for
// Node-ecosystem MCP server commands.
//
// The database and cross-platform backups always hold the unwrapped
// canonical form; wrapping is applied only when a tool config is written
// on Windows, and stripped again on read (including on the Linux side of
// the WSL bridge, which never wraps).
package cmdwrap

import "strings"

// nodeShims are command basenames (stem only, case-insensitive) that need
// the cmd /c shim to be invoked from outside a shell on Windows.
var nodeShims = map[string]bool{
	"npx":  true,
	"npm":  true,
	"yarn": true,
	"pnpm": true,
	"node": true,
	"bun":  true,
	"deno": true,
}

// Entry is the canonical shape of a stdio MCP server invocation.
type Entry struct {
	Command string
	Args    []string
	Env     map[string]string
}

// NeedsWrap reports whether command's basename (case-insensitive, stem
// only, extension stripped) names a Node-ecosystem executable that
// requires the cmd /c shim on Windows.
func NeedsWrap(command string) bool {
	return nodeShims[stem(command)]
}

// stem lowercases command and strips a trailing .cmd/.exe/.bat extension so
// "npx.cmd" and "NPX" both match the shim set.
func stem(command string) string {
	c := strings.ToLower(command)
	for _, ext := range []string{".cmd", ".exe", ".bat"} {
		c = strings.TrimSuffix(c, ext)
	}
	// also handle a bare path like /usr/local/bin/npx
	if idx := strings.LastIndexAny(c, `/\`); idx >= 0 {
		c = c[idx+1:]
	}
	return c
}

// WrapCmdC produces the Windows cmd /c wrapped form of e when e's command
// needs the shim; otherwise it returns e unchanged. Callers are expected to
// call this only when targeting Windows.
func WrapCmdC(e Entry) Entry {
	if !NeedsWrap(e.Command) {
		return e
	}
	args := make([]string, 0, len(e.Args)+2)
	args = append(args, "/c", e.Command)
	args = append(args, e.Args...)
	return Entry{Command: "cmd", Args: args, Env: e.Env}
}

// UnwrapCmdC reverses WrapCmdC. It is idempotent: calling it on an
// already-unwrapped entry returns that entry unchanged.
func UnwrapCmdC(e Entry) Entry {
	cmd := strings.ToLower(e.Command)
	if cmd != "cmd" && cmd != "cmd.exe" {
		return e
	}
	if len(e.Args) < 2 || !strings.EqualFold(e.Args[0], "/c") {
		return e
	}
	return Entry{Command: e.Args[1], Args: append([]string{}, e.Args[2:]...), Env: e.Env}
}

// WrapCmdCArray produces the OpenCode dialect's single-array form of a
// command, applying the cmd /c shim only when windows is true and the
// command needs it.
func WrapCmdCArray(command string, args []string, windows bool) []string {
	e := Entry{Command: command, Args: args}
	if windows {
		e = WrapCmdC(e)
	}
	out := make([]string, 0, len(e.Args)+1)
	out = append(out, e.Command)
	out = append(out, e.Args...)
	return out
}

// UnwrapCmdCArray reverses WrapCmdCArray given OpenCode's single-array
// command form, returning the bare command and its arguments.
func UnwrapCmdCArray(array []string) (command string, args []string) {
	if len(array) == 0 {
		return "", nil
	}
	e := UnwrapCmdC(Entry{Command: array[0], Args: array[1:]})
	return e.Command, e.Args
}
