package format

import (
	"strings"
	"testing"

	"github.com/barysiuk/agentsync/internal/core/model"
)

func TestJSONUpsertThenReadRoundTrip(t *testing.T) {
	srv := model.MCPServer{
		Name:       "fs",
		ServerType: model.ServerStdio,
		ServerConfig: model.ServerConfig{
			Command: "npx",
			Args:    []string{"-y", "server-filesystem"},
			Env:     map[string]string{"FOO": "1"},
		},
	}
	out, err := JSONTranslator{}.Upsert(nil, "mcpServers", "fs", srv, false)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	candidates, err := JSONTranslator{}.Read(out, "mcpServers")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got, ok := candidates["fs"]
	if !ok {
		t.Fatalf("fs not found in %v", candidates)
	}
	if got.Config.Command != "npx" || got.Config.Env["FOO"] != "1" {
		t.Fatalf("got %+v", got)
	}
}

func TestJSONUpsertPreservesUnrelatedKeys(t *testing.T) {
	existing := []byte(`{"otherKey": {"keep": true}, "mcpServers": {"old": {"command": "x"}}}`)
	srv := model.MCPServer{Name: "fs", ServerType: model.ServerStdio, ServerConfig: model.ServerConfig{Command: "npx"}}
	out, err := JSONTranslator{}.Upsert(existing, "mcpServers", "fs", srv, false)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "otherKey") || !strings.Contains(s, "\"old\"") {
		t.Fatalf("unrelated keys lost: %s", s)
	}
}

func TestJSONWindowsWrapping(t *testing.T) {
	srv := model.MCPServer{Name: "fs", ServerType: model.ServerStdio, ServerConfig: model.ServerConfig{Command: "npx", Args: []string{"-y", "pkg"}}}
	out, err := JSONTranslator{}.Upsert(nil, "mcpServers", "fs", srv, true)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !strings.Contains(string(out), `"cmd"`) {
		t.Fatalf("expected cmd /c wrapping on windows: %s", out)
	}
}

func TestOpenCodeDialectWindows(t *testing.T) {
	srv := model.MCPServer{
		Name:       "fs",
		ServerType: model.ServerStdio,
		ServerConfig: model.ServerConfig{
			Command: "npx",
			Args:    []string{"-y", "server-filesystem"},
			Env:     map[string]string{"FOO": "1"},
		},
	}
	out, err := OpenCodeTranslator{}.Upsert(nil, "mcp", "fs", srv, true)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	s := string(out)
	for _, want := range []string{`"type": "local"`, `"cmd"`, `"/c"`, `"environment"`, `"enabled": true`} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in %s", want, s)
		}
	}

	candidates, err := OpenCodeTranslator{}.Read(out, "mcp")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := candidates["fs"]
	if got.Config.Command != "npx" || got.Config.Env["FOO"] != "1" {
		t.Fatalf("unwrap on read failed: %+v", got)
	}
}

func TestTOMLImportHeaders(t *testing.T) {
	content := []byte("[mcp_servers.docs]\ntype=\"http\"\nurl=\"https://x/y\"\n[mcp_servers.docs.http_headers]\nX=\"1\"\n")
	candidates, err := TOMLTranslator{}.Read(content, "mcp_servers")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got, ok := candidates["docs"]
	if !ok {
		t.Fatalf("docs not found: %v", candidates)
	}
	if got.Type != model.ServerHTTP || got.Config.URL != "https://x/y" || got.Config.Headers["X"] != "1" {
		t.Fatalf("got %+v", got)
	}
}

func TestTOMLUpsertFieldOrder(t *testing.T) {
	srv := model.MCPServer{Name: "fs", ServerType: model.ServerStdio, ServerConfig: model.ServerConfig{Command: "npx", Args: []string{"-y"}}}
	out, err := TOMLTranslator{}.Upsert(nil, "mcp_servers", "fs", srv, false)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	s := string(out)
	typeIdx := strings.Index(s, "type")
	commandIdx := strings.Index(s, "command")
	if typeIdx < 0 || commandIdx < 0 || typeIdx > commandIdx {
		t.Fatalf("expected type before command: %s", s)
	}
}

func TestFlatJSONClaudePlugin(t *testing.T) {
	content := []byte(`{"fs": {"command": "npx", "args": ["-y", "pkg"]}}`)
	candidates, err := ReadFlatJSON(content)
	if err != nil {
		t.Fatalf("ReadFlatJSON: %v", err)
	}
	if candidates["fs"].Config.Command != "npx" {
		t.Fatalf("got %+v", candidates)
	}
}
