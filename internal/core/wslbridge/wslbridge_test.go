package wslbridge

import (
	"strings"
	"testing"
)

func TestToWSLMountPath(t *testing.T) {
	cases := map[string]string{
		`C:\Users\bob\.skills\alpha`: "/mnt/c/Users/bob/.skills/alpha",
		`D:\repos\x`:                 "/mnt/d/repos/x",
	}
	for in, want := range cases {
		if got := toWSLMountPath(in); got != want {
			t.Errorf("toWSLMountPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveDistroPrefersConfigured(t *testing.T) {
	cfg := Config{Distro: "Ubuntu-22.04"}
	got, err := ResolveDistro(cfg, []string{"Debian", "Ubuntu-22.04"})
	if err != nil || got != "Ubuntu-22.04" {
		t.Fatalf("ResolveDistro = %q, %v", got, err)
	}
}

func TestResolveDistroFallsBackToFirstAvailable(t *testing.T) {
	cfg := Config{Distro: "missing-distro"}
	got, err := ResolveDistro(cfg, []string{"Debian", "Ubuntu-22.04"})
	if err != nil || got != "Debian" {
		t.Fatalf("ResolveDistro = %q, %v", got, err)
	}
}

func TestResolveDistroErrorsWhenNoneAvailable(t *testing.T) {
	if _, err := ResolveDistro(Config{Distro: "x"}, nil); err == nil {
		t.Fatal("expected error when no distros are available")
	}
}

func TestCheckEncodingRejectsReplacementCharacter(t *testing.T) {
	content := []byte("hello \uFFFD world")
	if err := CheckEncoding(content); err == nil {
		t.Fatal("expected error for replacement character")
	}
}

func TestCheckEncodingAcceptsCleanUTF8(t *testing.T) {
	content := []byte("---\nname: alpha\ndescription: a perfectly normal skill\n---\nbody text here")
	if err := CheckEncoding(content); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckEncodingRejectsHighNonPrintableRatio(t *testing.T) {
	content := make([]byte, 256)
	for i := range content {
		content[i] = byte(i % 32) // mostly control bytes, not valid printable text
	}
	if err := CheckEncoding(content); err == nil {
		t.Fatal("expected error for high non-printable ratio")
	}
}

func TestStripWindowsWrappingJSON(t *testing.T) {
	input := []byte(`{"mcp":{"fs":{"type":"local","command":["cmd","/c","npx","-y","server-filesystem"],"environment":{"FOO":"1"},"enabled":true}}}`)
	out, err := ProcessOpenCodeJSON(input, "mcp")
	if err != nil {
		t.Fatalf("ProcessOpenCodeJSON: %v", err)
	}
	text := string(out)
	if strings.Contains(text, `"cmd"`) {
		t.Fatalf("expected cmd /c wrapping stripped, got: %s", text)
	}
	if !strings.Contains(text, `"npx"`) {
		t.Fatalf("expected npx to remain, got: %s", text)
	}
}

func TestStripWindowsWrappingTOML(t *testing.T) {
	input := []byte("[mcp_servers.docs]\ntype = \"stdio\"\ncommand = \"cmd\"\nargs = [\"/c\", \"npx\", \"-y\", \"server-filesystem\"]\n")
	out, err := ProcessCodexTOML(input, "mcp_servers")
	if err != nil {
		t.Fatalf("ProcessCodexTOML: %v", err)
	}
	text := string(out)
	if strings.Contains(text, `command = "cmd"`) {
		t.Fatalf("expected cmd wrapping stripped, got: %s", text)
	}
	if !strings.Contains(text, `"npx"`) {
		t.Fatalf("expected npx to remain, got: %s", text)
	}
}

func TestStripWindowsWrappingTOMLNoOpWhenUnwrapped(t *testing.T) {
	input := []byte("[mcp_servers.docs]\ntype = \"stdio\"\ncommand = \"npx\"\nargs = [\"-y\", \"server-filesystem\"]\n")
	out, err := ProcessCodexTOML(input, "mcp_servers")
	if err != nil {
		t.Fatalf("ProcessCodexTOML: %v", err)
	}
	if string(out) != string(input) {
		t.Fatalf("expected no-op on already-unwrapped input")
	}
}
