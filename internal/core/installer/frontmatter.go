package installer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const skillFileName = "SKILL.md"

// frontmatter is the YAML structure in a SKILL.md file's leading block.
type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// readFrontmatter reads the YAML frontmatter out of a SKILL.md file whose
// first line is "---". Returns an error if the file is absent, empty, or
// has no frontmatter block.
func readFrontmatter(path string) (frontmatter, error) {
	f, err := os.Open(path)
	if err != nil {
		return frontmatter{}, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return frontmatter{}, fmt.Errorf("empty file: %s", path)
	}
	if strings.TrimSpace(scanner.Text()) != "---" {
		return frontmatter{}, fmt.Errorf("no frontmatter in %s", path)
	}

	var body strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			break
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return frontmatter{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(body.String()), &fm); err != nil {
		return frontmatter{}, fmt.Errorf("parsing frontmatter in %s: %w", path, err)
	}
	return fm, nil
}

// resolveName implements the installer's name resolution order: SKILL.md
// frontmatter name: if present, else the last path segment of dir, else
// fallback (caller passes a repo-URL-derived fallback for Git installs).
func resolveName(dir, fallback string) string {
	if fm, err := readFrontmatter(filepath.Join(dir, skillFileName)); err == nil && fm.Name != "" {
		return fm.Name
	}
	base := filepath.Base(dir)
	if base != "" && base != "." && base != string(filepath.Separator) {
		return base
	}
	return fallback
}
