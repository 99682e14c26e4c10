// Package pathutil resolves the prefix forms the engine stores paths in
// (~/, %APPDATA%/, or plain absolute) to concrete absolute filesystem paths.
//
// This is the only package that inspects the environment for home or config
// directories; every other component consumes already-resolved absolute
// paths so that the rest of the engine stays portable and testable.
package pathutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	homePrefix    = "~/"
	appDataPrefix = "%APPDATA%/"
)

// Resolve expands a stored path (possibly prefixed with "~/" or
// "%APPDATA%/") into a concrete absolute path using forward-slash storage
// form. A path with neither prefix is treated as already absolute.
func Resolve(stored string) (string, error) {
	stored = Normalize(stored)

	switch {
	case strings.HasPrefix(stored, homePrefix):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, filepath.FromSlash(stored[len(homePrefix):])), nil
	case strings.HasPrefix(stored, appDataPrefix):
		cfg, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, filepath.FromSlash(stored[len(appDataPrefix):])), nil
	default:
		return filepath.FromSlash(stored), nil
	}
}

// ConfigDir returns the platform configuration directory: %APPDATA% on
// Windows, $HOME/.config everywhere else.
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		if v := os.Getenv("APPDATA"); v != "" {
			return v, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// Normalize trims a leading "./" and collapses the storage form of a path,
// always using forward slashes regardless of host OS.
func Normalize(p string) string {
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// Collapse rewrites an absolute path back into storage form relative to the
// user's home directory when possible ("~/...") , otherwise returns the
// normalized absolute path unchanged. It is the inverse used when recording
// a user-supplied path back to a preferences record.
func Collapse(abs string) string {
	abs = filepath.ToSlash(abs)
	home, err := os.UserHomeDir()
	if err != nil {
		return abs
	}
	home = filepath.ToSlash(home)
	if abs == home {
		return "~"
	}
	if strings.HasPrefix(abs, home+"/") {
		return homePrefix + strings.TrimPrefix(abs, home+"/")
	}
	return abs
}

// SameFile reports whether two storage-form or absolute paths resolve to
// the same concrete location once both prefix forms are expanded.
func SameFile(a, b string) bool {
	ra, erra := Resolve(a)
	rb, errb := Resolve(b)
	if erra != nil || errb != nil {
		return a == b
	}
	return filepath.Clean(ra) == filepath.Clean(rb)
}
