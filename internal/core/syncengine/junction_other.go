//go:build !windows

package syncengine

import "fmt"

// createJunction is only meaningful on Windows; on POSIX the symlink step
// never fails for lack of privilege, so this path is never taken, but it
// is kept so callers don't need a build-tagged call site.
func createJunction(target, link string) error {
	return fmt.Errorf("directory junctions are a Windows-only fallback")
}

// isJunction always reports false off Windows: POSIX has no junction
// concept, only symlinks.
func isJunction(path string) (bool, error) {
	return false, nil
}

func removeReparsePoint(path string, junction bool) error {
	return fmt.Errorf("removeReparsePoint is Windows-only")
}
