package format

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/barysiuk/agentsync/internal/core/model"
)

// TOMLTranslator implements Codex's TOML schema: servers become tables
// under [<field>.<name>], stdio tables ordered type/command/args/env and
// remote tables ordered type/url/http_headers for stable diffs. http_headers
// is the preferred field on write; both http_headers and the legacy headers
// name are accepted on read.
//
// BurntSushi/toml does not preserve comments or hand-edit layout the way a
// format-preserving TOML editor would, so a round trip through Upsert keeps
// every key but may reflow whitespace in untouched tables.
type TOMLTranslator struct{}

type tomlStdioEntry struct {
	Type    string            `toml:"type"`
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Env     map[string]string `toml:"env,omitempty"`
}

type tomlRemoteEntry struct {
	Type        string            `toml:"type"`
	URL         string            `toml:"url"`
	HTTPHeaders map[string]string `toml:"http_headers,omitempty"`
}

// Read implements Translator.
func (TOMLTranslator) Read(content []byte, field string) (map[string]Candidate, error) {
	result := map[string]Candidate{}
	if len(content) == 0 {
		return result, nil
	}

	var doc map[string]any
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing toml config: %w", err)
	}

	fieldRaw, ok := doc[field]
	if !ok {
		return result, nil
	}
	fieldMap, ok := fieldRaw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("toml field %q is not a table", field)
	}

	for name, raw := range fieldMap {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		command, _ := entry["command"].(string)
		url, _ := entry["url"].(string)
		explicitType, _ := entry["type"].(string)
		typ := detectType(command != "", url != "", explicitType)

		switch typ {
		case model.ServerStdio:
			args := toStringSlice(entry["args"])
			env := toStringMap(entry["env"])
			command, args = unwrapStdio(command, args)
			result[name] = Candidate{
				Name: name,
				Type: model.ServerStdio,
				Config: model.ServerConfig{
					Command: command,
					Args:    args,
					Env:     env,
				},
			}
		default:
			headers := toStringMap(entry["http_headers"])
			if headers == nil {
				headers = toStringMap(entry["headers"])
			}
			result[name] = Candidate{
				Name: name,
				Type: typ,
				Config: model.ServerConfig{
					URL:     url,
					Headers: headers,
				},
			}
		}
	}
	return result, nil
}

// Upsert implements Translator.
func (TOMLTranslator) Upsert(content []byte, field, name string, srv model.MCPServer, windows bool) ([]byte, error) {
	doc, err := decodeTOMLOrEmpty(content)
	if err != nil {
		return nil, err
	}
	fieldMap, _ := doc[field].(map[string]any)
	if fieldMap == nil {
		fieldMap = map[string]any{}
	}

	if srv.ServerType == model.ServerStdio {
		command, args := wrapStdioIfWindows(srv.ServerConfig.Command, srv.ServerConfig.Args, windows)
		fieldMap[name] = tomlStdioEntry{
			Type:    string(model.ServerStdio),
			Command: command,
			Args:    args,
			Env:     srv.ServerConfig.Env,
		}
	} else {
		typ := srv.ServerType
		if typ == "" {
			typ = model.ServerHTTP
		}
		fieldMap[name] = tomlRemoteEntry{
			Type:        string(typ),
			URL:         srv.ServerConfig.URL,
			HTTPHeaders: srv.ServerConfig.Headers,
		}
	}
	doc[field] = fieldMap

	return encodeTOML(doc)
}

// Remove implements Translator.
func (TOMLTranslator) Remove(content []byte, field, name string) ([]byte, error) {
	doc, err := decodeTOMLOrEmpty(content)
	if err != nil {
		return nil, err
	}
	fieldMap, _ := doc[field].(map[string]any)
	if fieldMap == nil {
		return content, nil
	}
	if _, ok := fieldMap[name]; !ok {
		return content, nil
	}
	delete(fieldMap, name)
	doc[field] = fieldMap
	return encodeTOML(doc)
}

func decodeTOMLOrEmpty(content []byte) (map[string]any, error) {
	if len(content) == 0 {
		return map[string]any{}, nil
	}
	var doc map[string]any
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing toml config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func encodeTOML(doc map[string]any) ([]byte, error) {
	data, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding toml config: %w", err)
	}
	return data, nil
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		if s, ok := v.([]string); ok {
			return s
		}
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

func toStringMap(v any) map[string]string {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, e := range raw {
		if s, ok := e.(string); ok {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
