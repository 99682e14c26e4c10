package format

import (
	"encoding/json"
	"fmt"

	"github.com/barysiuk/agentsync/internal/core/cmdwrap"
	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/tailscale/hujson"
)

// OpenCodeTranslator implements OpenCode's MCP dialect: stdio ↔ local and
// http/sse ↔ remote type mapping, command+args merged into a single
// "command" array, environment variables under "environment" rather than
// "env", and a mandatory "enabled: true" on every entry the engine writes.
type OpenCodeTranslator struct{}

type openCodeEntry struct {
	Type        string            `json:"type,omitempty"`
	Command     []string          `json:"command,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	URL         string            `json:"url,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Enabled     bool              `json:"enabled"`
	Timeout     int               `json:"timeout,omitempty"`
}

// Read implements Translator.
func (OpenCodeTranslator) Read(content []byte, field string) (map[string]Candidate, error) {
	result := map[string]Candidate{}
	if len(content) == 0 {
		return result, nil
	}
	root, err := hujson.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing opencode config: %w", err)
	}
	root.Standardize()

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(root.Pack(), &doc); err != nil {
		return nil, fmt.Errorf("decoding opencode config: %w", err)
	}
	raw, ok := doc[field]
	if !ok {
		return result, nil
	}
	var fieldDoc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fieldDoc); err != nil {
		return nil, fmt.Errorf("decoding opencode field %q: %w", field, err)
	}

	for name, entryRaw := range fieldDoc {
		var e openCodeEntry
		if err := json.Unmarshal(entryRaw, &e); err != nil {
			continue
		}
		typ := e.Type
		if typ == "" {
			typ = "local"
		}
		switch typ {
		case "local":
			command, args := cmdwrap.UnwrapCmdCArray(e.Command)
			result[name] = Candidate{
				Name: name,
				Type: model.ServerStdio,
				Config: model.ServerConfig{
					Command: command,
					Args:    args,
					Env:     e.Environment,
				},
			}
		default: // "remote" resolves back to http
			result[name] = Candidate{
				Name: name,
				Type: model.ServerHTTP,
				Config: model.ServerConfig{
					URL:     e.URL,
					Headers: e.Headers,
				},
			}
		}
	}
	return result, nil
}

// Upsert implements Translator.
func (OpenCodeTranslator) Upsert(content []byte, field, name string, srv model.MCPServer, windows bool) ([]byte, error) {
	root, err := parseOrEmpty(content)
	if err != nil {
		return nil, err
	}
	if err := ensureObject(&root, field); err != nil {
		return nil, err
	}

	var entry openCodeEntry
	if srv.ServerType == model.ServerStdio {
		entry = openCodeEntry{
			Type:        "local",
			Command:     cmdwrap.WrapCmdCArray(srv.ServerConfig.Command, srv.ServerConfig.Args, windows),
			Environment: srv.ServerConfig.Env,
			Enabled:     true,
			Timeout:     srv.Timeout,
		}
	} else {
		entry = openCodeEntry{
			Type:    "remote",
			URL:     srv.ServerConfig.URL,
			Headers: srv.ServerConfig.Headers,
			Enabled: true,
			Timeout: srv.Timeout,
		}
	}

	valueJSON, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, err
	}

	entryPtr := pointer(field, name)
	op := "add"
	if root.Find(entryPtr) != nil {
		op = "replace"
	}
	patch := fmt.Sprintf(`[{"op":%q,"path":%q,"value":%s}]`, op, entryPtr, valueJSON)
	if err := root.Patch([]byte(patch)); err != nil {
		return nil, fmt.Errorf("writing opencode mcp entry %q: %w", name, err)
	}
	return finalize(&root), nil
}

// Remove implements Translator.
func (OpenCodeTranslator) Remove(content []byte, field, name string) ([]byte, error) {
	root, err := parseOrEmpty(content)
	if err != nil {
		return nil, err
	}
	entryPtr := pointer(field, name)
	if root.Find(entryPtr) == nil {
		return content, nil
	}
	patch := fmt.Sprintf(`[{"op":"remove","path":%q}]`, entryPtr)
	if err := root.Patch([]byte(patch)); err != nil {
		return nil, fmt.Errorf("removing opencode mcp entry %q: %w", name, err)
	}
	return finalize(&root), nil
}
