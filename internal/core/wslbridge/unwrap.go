package wslbridge

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/barysiuk/agentsync/internal/core/cmdwrap"
	"github.com/tailscale/hujson"
)

// stripWindowsWrappingJSON removes cmd /c wrapping from every stdio
// entry's "command" array under field in an OpenCode-dialect JSON/JSONC
// document, for files copied from Windows to the Linux side of the WSL
// bridge (which never wraps).
func stripWindowsWrappingJSON(content []byte, field string) ([]byte, error) {
	root, err := hujson.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing opencode json: %w", err)
	}
	root.Standardize()

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(root.Pack(), &doc); err != nil {
		return nil, fmt.Errorf("decoding opencode json: %w", err)
	}
	raw, ok := doc[field]
	if !ok {
		return content, nil
	}
	var entries map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding opencode field %q: %w", field, err)
	}

	changed := false
	for name, entry := range entries {
		cmdRaw, ok := entry["command"]
		if !ok {
			continue
		}
		var array []string
		if err := json.Unmarshal(cmdRaw, &array); err != nil {
			continue
		}
		command, args := cmdwrap.UnwrapCmdCArray(array)
		unwrapped := append([]string{command}, args...)
		data, err := json.Marshal(unwrapped)
		if err != nil {
			return nil, err
		}
		entry["command"] = data
		entries[name] = entry
		changed = true
	}
	if !changed {
		return content, nil
	}

	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	doc[field] = entriesJSON
	return json.MarshalIndent(doc, "", "  ")
}

// stripWindowsWrappingTOML removes cmd /c wrapping from every stdio
// entry's command/args in a Codex TOML document.
func stripWindowsWrappingTOML(content []byte, field string) ([]byte, error) {
	var doc map[string]any
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing codex toml: %w", err)
	}
	fieldMap, ok := doc[field].(map[string]any)
	if !ok {
		return content, nil
	}

	changed := false
	for name, raw := range fieldMap {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		command, _ := entry["command"].(string)
		if command == "" {
			continue
		}
		args := toStrings(entry["args"])
		e := cmdwrap.UnwrapCmdC(cmdwrap.Entry{Command: command, Args: args})
		if e.Command == command {
			continue
		}
		entry["command"] = e.Command
		entry["args"] = e.Args
		fieldMap[name] = entry
		changed = true
	}
	if !changed {
		return content, nil
	}
	doc[field] = fieldMap

	enc, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding codex toml: %w", err)
	}
	return enc, nil
}

func toStrings(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
