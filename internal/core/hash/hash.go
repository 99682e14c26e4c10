// Package hash computes stable content fingerprints for skill directories.
//
// The digest is used to decide whether an update-from-source actually
// changed anything and whether a WSL mirror has gone stale, so it must be
// reproducible across operating systems: paths are walked lexicographically
// and separators are normalized before any bytes reach SHA-256.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir returns a hex-encoded SHA-256 digest of a directory tree: every file's
// relative path (with forward slashes) and its bytes are fed into the
// hash in lexicographic path order. A ".git" directory anywhere in the tree
// is skipped entirely, matching the central store's own exclusion rule.
func Dir(root string) (string, error) {
	paths, err := collect(root)
	if err != nil {
		return "", err
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, rel := range paths {
		storageRel := filepath.ToSlash(rel)
		h.Write([]byte(storageRel))
		h.Write([]byte{0})
		f, err := os.Open(filepath.Join(root, rel))
		if err != nil {
			return "", err
		}
		_, err = io.Copy(h, f)
		cerr := f.Close()
		if err != nil {
			return "", err
		}
		if cerr != nil {
			return "", cerr
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// collect walks root and returns every regular file's path relative to root,
// skipping any ".git" directory encountered at any depth.
func collect(root string) ([]string, error) {
	var rels []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if strings.HasPrefix(filepath.ToSlash(rel), ".git/") {
			return nil
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// Bytes returns a hex-encoded SHA-256 digest of the given byte slice, used
// for change detection in metadata that is not a directory (for example a
// single config file body read during WSL mirroring).
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
