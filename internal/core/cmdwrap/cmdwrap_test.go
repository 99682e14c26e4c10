package cmdwrap

import (
	"reflect"
	"testing"
)

func TestNeedsWrap(t *testing.T) {
	cases := map[string]bool{
		"npx":        true,
		"npx.cmd":    true,
		"NPX.CMD":    true,
		"node":       true,
		"bun":        true,
		"python":     false,
		"go":         false,
		"cmd":        false,
		"/bin/pnpm":  true,
		`C:\x\yarn`:  true,
	}
	for in, want := range cases {
		if got := NeedsWrap(in); got != want {
			t.Errorf("NeedsWrap(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	e := Entry{Command: "npx", Args: []string{"-y", "server-filesystem"}}
	wrapped := WrapCmdC(e)
	want := Entry{Command: "cmd", Args: []string{"/c", "npx", "-y", "server-filesystem"}}
	if !reflect.DeepEqual(wrapped, want) {
		t.Fatalf("WrapCmdC = %+v, want %+v", wrapped, want)
	}

	unwrapped := UnwrapCmdC(wrapped)
	if !reflect.DeepEqual(unwrapped, e) {
		t.Fatalf("UnwrapCmdC(WrapCmdC(e)) = %+v, want %+v", unwrapped, e)
	}

	idempotent := UnwrapCmdC(unwrapped)
	if !reflect.DeepEqual(idempotent, unwrapped) {
		t.Fatalf("UnwrapCmdC not idempotent: %+v != %+v", idempotent, unwrapped)
	}
}

func TestUnwrapCaseInsensitiveSlashC(t *testing.T) {
	e := Entry{Command: "cmd", Args: []string{"/C", "npx", "-y", "pkg"}}
	got := UnwrapCmdC(e)
	want := Entry{Command: "npx", Args: []string{"-y", "pkg"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UnwrapCmdC = %+v, want %+v", got, want)
	}
}

func TestNoWrapPassThrough(t *testing.T) {
	e := Entry{Command: "python", Args: []string{"server.py"}}
	if got := WrapCmdC(e); !reflect.DeepEqual(got, e) {
		t.Fatalf("WrapCmdC on non-shim command mutated entry: %+v", got)
	}
}

func TestArrayDialectRoundTrip(t *testing.T) {
	arr := WrapCmdCArray("npx", []string{"-y", "server-filesystem"}, true)
	want := []string{"cmd", "/c", "npx", "-y", "server-filesystem"}
	if !reflect.DeepEqual(arr, want) {
		t.Fatalf("WrapCmdCArray = %v, want %v", arr, want)
	}
	cmd, args := UnwrapCmdCArray(arr)
	if cmd != "npx" || !reflect.DeepEqual(args, []string{"-y", "server-filesystem"}) {
		t.Fatalf("UnwrapCmdCArray = %q %v", cmd, args)
	}
}

func TestArrayDialectNoWrapOffWindows(t *testing.T) {
	arr := WrapCmdCArray("npx", []string{"-y", "server-filesystem"}, false)
	want := []string{"npx", "-y", "server-filesystem"}
	if !reflect.DeepEqual(arr, want) {
		t.Fatalf("WrapCmdCArray(windows=false) = %v, want %v", arr, want)
	}
}
