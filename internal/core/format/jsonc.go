package format

import (
	"encoding/json"
	"fmt"

	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/tailscale/hujson"
)

// JSONTranslator implements the default mcpServers-style schema shared by
// Claude Code, Gemini CLI, Cursor, Windsurf, and most other JSON/JSONC
// tools: { <field>: { <name>: { type, command, args, env?, url?, headers? } } }.
// It parses with hujson so JSONC comments and trailing commas survive, and
// edits via JSON Pointer patches so unrelated keys in the file are left
// untouched.
type JSONTranslator struct{}

type jsoncEntry struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Read implements Translator.
func (JSONTranslator) Read(content []byte, field string) (map[string]Candidate, error) {
	return readJSONField(content, field)
}

// readJSONField is shared by JSONTranslator.Read and the Claude-Code plugin
// flat-map reader (which passes field="" to read the top level directly).
func readJSONField(content []byte, field string) (map[string]Candidate, error) {
	result := map[string]Candidate{}
	if len(content) == 0 {
		return result, nil
	}
	root, err := hujson.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing json config: %w", err)
	}
	root.Standardize()

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(root.Pack(), &doc); err != nil {
		return nil, fmt.Errorf("decoding json config: %w", err)
	}

	var fieldDoc map[string]json.RawMessage
	if field == "" {
		fieldDoc = doc
	} else {
		raw, ok := doc[field]
		if !ok {
			return result, nil
		}
		if err := json.Unmarshal(raw, &fieldDoc); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", field, err)
		}
	}

	for name, raw := range fieldDoc {
		var e jsoncEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		command, args := unwrapStdio(e.Command, e.Args)
		typ := detectType(e.Command != "", e.URL != "", e.Type)
		result[name] = Candidate{
			Name: name,
			Type: typ,
			Config: model.ServerConfig{
				Command: command,
				Args:    args,
				Env:     e.Env,
				URL:     e.URL,
				Headers: e.Headers,
			},
		}
	}
	return result, nil
}

// Upsert implements Translator.
func (JSONTranslator) Upsert(content []byte, field, name string, srv model.MCPServer, windows bool) ([]byte, error) {
	root, err := parseOrEmpty(content)
	if err != nil {
		return nil, err
	}
	if err := ensureObject(&root, field); err != nil {
		return nil, err
	}

	entry := buildJSONCEntry(srv, windows)
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
		return nil, fmt.Errorf("writing mcp entry %q: %w", name, err)
	}
	return finalize(&root), nil
}

// Remove implements Translator.
func (JSONTranslator) Remove(content []byte, field, name string) ([]byte, error) {
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
		return nil, fmt.Errorf("removing mcp entry %q: %w", name, err)
	}
	return finalize(&root), nil
}

func buildJSONCEntry(srv model.MCPServer, windows bool) jsoncEntry {
	if srv.ServerType == model.ServerStdio {
		command, args := wrapStdioIfWindows(srv.ServerConfig.Command, srv.ServerConfig.Args, windows)
		return jsoncEntry{
			Type:    string(model.ServerStdio),
			Command: command,
			Args:    args,
			Env:     srv.ServerConfig.Env,
		}
	}
	typ := srv.ServerType
	if typ == "" {
		typ = model.ServerHTTP
	}
	return jsoncEntry{
		Type:    string(typ),
		URL:     srv.ServerConfig.URL,
		Headers: srv.ServerConfig.Headers,
	}
}

func parseOrEmpty(content []byte) (hujson.Value, error) {
	if len(content) == 0 {
		content = []byte("{}")
	}
	root, err := hujson.Parse(content)
	if err != nil {
		return hujson.Value{}, fmt.Errorf("parsing json config: %w", err)
	}
	return root, nil
}

func ensureObject(root *hujson.Value, field string) error {
	if field == "" {
		return nil
	}
	ptr := "/" + jsonPointerEscape(field)
	if root.Find(ptr) != nil {
		return nil
	}
	patch := fmt.Sprintf(`[{"op":"add","path":%q,"value":{}}]`, ptr)
	return root.Patch([]byte(patch))
}

func pointer(field, name string) string {
	if field == "" {
		return "/" + jsonPointerEscape(name)
	}
	return "/" + jsonPointerEscape(field) + "/" + jsonPointerEscape(name)
}

func finalize(root *hujson.Value) []byte {
	root.Format()
	return root.Pack()
}

// jsonPointerEscape escapes a string for use as a JSON Pointer token per
// RFC 6901.
func jsonPointerEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '~':
			out = append(out, '~', '0')
		case '/':
			out = append(out, '~', '1')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

// ReadFlatJSON reads a Claude Code plugin .mcp.json file, which is a flat
// map of name -> entry with no wrapper field, using the same per-entry
// parsing rules as the default JSON dialect.
func ReadFlatJSON(content []byte) (map[string]Candidate, error) {
	return readJSONField(content, "")
}
