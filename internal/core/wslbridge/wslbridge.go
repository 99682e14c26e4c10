// Package wslbridge mirrors skills and MCP configuration from the
// Windows host into a WSL distro. It is only
// meaningful when platform.IsWindows(); callers on other hosts should
// not construct a Bridge at all.
package wslbridge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/barysiuk/agentsync/internal/core/model"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the "WSL sync config" singleton.
type Config struct {
	Enabled     bool     `json:"enabled"`
	Distro      string   `json:"distro"`
	SyncSkills  bool     `json:"sync_skills"`
	SyncMCP     bool     `json:"sync_mcp"`
	MCPMappings []string `json:"mcp_mappings,omitempty"`
}

// mirrorRoot is where skills are mirrored inside the distro.
const mirrorRoot = "~/.ai-toolbox/skills"

// Bridge invokes `wsl -d <distro> --exec bash -c '...'` to mirror state
// into a WSL distro, logging every subprocess transcript through a
// size-bounded rolling log file.
type Bridge struct {
	distro string
	log    *lumberjack.Logger
}

// New returns a Bridge targeting distro, logging subprocess transcripts to
// logPath with rotation (10MB / 5 backups / 30 days), the same defaults
// the pack's logging setups use for rotated debug logs.
func New(distro, logPath string) *Bridge {
	return &Bridge{
		distro: distro,
		log: &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// Close flushes and closes the transcript log.
func (b *Bridge) Close() error { return b.log.Close() }

// AvailableDistros lists `wsl -l -q` output (distro names), used to
// auto-resolve when the configured distro is unavailable.
func AvailableDistros(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "wsl", "-l", "-q").Output()
	if err != nil {
		return nil, fmt.Errorf("listing wsl distros: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(strings.Trim(line, "\x00"))
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// ResolveDistro returns cfg.Distro if it is present in available, else the
// first available distro, else an error if none exist.
func ResolveDistro(cfg Config, available []string) (string, error) {
	for _, d := range available {
		if d == cfg.Distro {
			return cfg.Distro, nil
		}
	}
	if len(available) > 0 {
		return available[0], nil
	}
	return "", fmt.Errorf("no WSL distro available")
}

// exec runs a bash script inside the distro via `wsl -d <distro> --exec
// bash -c '<script>'`, logging the invocation and its combined output.
func (b *Bridge) exec(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "wsl", "-d", b.distro, "--exec", "bash", "-c", script)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	fmt.Fprintf(b.log, "[wsl %s] %s\n---\n%s\n===\n", b.distro, script, out.String())
	if err != nil {
		return out.String(), fmt.Errorf("wsl -d %s --exec bash -c: %w: %s", b.distro, err, strings.TrimSpace(out.String()))
	}
	return out.String(), nil
}

// SyncedHashPath is the per-skill staleness marker inside the mirror.
func SyncedHashPath(skillName string) string {
	return mirrorRoot + "/" + skillName + "/.synced_hash"
}

// SyncSkill mirrors a single skill into the distro if its content_hash
// differs from the mirror's recorded .synced_hash, copying from
// /mnt/<drive>/... on the Windows side into ~/.ai-toolbox/skills/<name>.
func (b *Bridge) SyncSkill(ctx context.Context, sk model.Skill, windowsSourcePath string) (bool, error) {
	target := mirrorRoot + "/" + sk.Name
	checkScript := fmt.Sprintf(`cat %s 2>/dev/null || true`, shellQuote(SyncedHashPath(sk.Name)))
	existingHash, err := b.exec(ctx, checkScript)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(existingHash) == sk.ContentHash {
		return false, nil
	}

	mnt := toWSLMountPath(windowsSourcePath)
	script := fmt.Sprintf(
		`mkdir -p %s && rm -rf %s && cp -r %s %s && printf '%%s' %s > %s`,
		shellQuote(mirrorRoot), shellQuote(target), shellQuote(mnt), shellQuote(target),
		shellQuote(sk.ContentHash), shellQuote(SyncedHashPath(sk.Name)),
	)
	if _, err := b.exec(ctx, script); err != nil {
		return false, fmt.Errorf("mirroring skill %s: %w", sk.Name, err)
	}
	return true, nil
}

// PruneSkills deletes every distro-side mirror entry not present in
// keepNames. Per-tool symlinks that point at a pruned entry are not
// removed.
func (b *Bridge) PruneSkills(ctx context.Context, keepNames []string) error {
	keep := make(map[string]bool, len(keepNames))
	for _, n := range keepNames {
		keep[n] = true
	}
	listing, err := b.exec(ctx, fmt.Sprintf(`ls -1 %s 2>/dev/null || true`, shellQuote(mirrorRoot)))
	if err != nil {
		return err
	}
	for _, name := range strings.Split(strings.TrimSpace(listing), "\n") {
		name = strings.TrimSpace(name)
		if name == "" || keep[name] {
			continue
		}
		if _, err := b.exec(ctx, fmt.Sprintf(`rm -rf %s`, shellQuote(mirrorRoot+"/"+name))); err != nil {
			return fmt.Errorf("pruning stale mirror %s: %w", name, err)
		}
	}
	return nil
}

// EnsureToolSymlink makes ~/<tool_skills_dir>/<skill_name> (Linux-side,
// relative to the distro's home) a symlink to the mirror entry.
func (b *Bridge) EnsureToolSymlink(ctx context.Context, toolSkillsDirLinux, skillName string) error {
	link := toolSkillsDirLinux + "/" + skillName
	script := fmt.Sprintf(
		`mkdir -p %s && rm -rf %s && ln -s %s %s`,
		shellQuote(toolSkillsDirLinux), shellQuote(link),
		shellQuote(mirrorRoot+"/"+skillName), shellQuote(link),
	)
	_, err := b.exec(ctx, script)
	return err
}

// RemoveToolSymlink removes a tool's symlink when the tool is no longer
// enabled for that skill (or the skill no longer exists).
func (b *Bridge) RemoveToolSymlink(ctx context.Context, toolSkillsDirLinux, skillName string) error {
	link := toolSkillsDirLinux + "/" + skillName
	_, err := b.exec(ctx, fmt.Sprintf(`rm -f %s`, shellQuote(link)))
	return err
}

// toWSLMountPath converts a Windows absolute path ("C:\Users\x\...") into
// its WSL mount-point equivalent ("/mnt/c/Users/x/...").
func toWSLMountPath(winPath string) string {
	p := strings.ReplaceAll(winPath, `\`, "/")
	if len(p) >= 2 && p[1] == ':' {
		drive := strings.ToLower(string(p[0]))
		return "/mnt/" + drive + p[2:]
	}
	return p
}

// shellQuote single-quotes s for bash. A leading "~/" is emitted as
// "$HOME"/ outside the quotes so it still names the home directory.
func shellQuote(s string) string {
	if strings.HasPrefix(s, "~/") {
		return `"$HOME"/` + shellQuote(s[2:])
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// replacementChar is the Unicode replacement character U+FFFD produced by
// lossily decoding a non-UTF-8 file (e.g. GBK) as UTF-8.
const replacementChar = '\uFFFD'

// CheckEncoding guards against a file read from WSL being corrupted by a
// lossy decode: it flags content containing the replacement character, or
// where more than 30% of the first 256 runes are non-printable, as unsafe
// to sync.
func CheckEncoding(content []byte) error {
	if bytes.ContainsRune(content, replacementChar) {
		return fmt.Errorf("file appears to contain invalid UTF-8 (replacement characters found); check the source file's encoding in WSL")
	}

	sample := content
	total, nonPrintable := 0, 0
	for len(sample) > 0 && total < 256 {
		r, size := utf8.DecodeRune(sample)
		sample = sample[size:]
		total++
		if r == utf8.RuneError {
			nonPrintable++
			continue
		}
		if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			nonPrintable++
		}
	}
	if total > 0 && float64(nonPrintable)/float64(total) > 0.3 {
		return fmt.Errorf("file has an unexpectedly high ratio of non-printable bytes (%d/%d); check the source file's encoding in WSL", nonPrintable, total)
	}
	return nil
}

// mcpMappingID names a Linux-side config file whose MCP server blocks
// need cmd /c stripped after being copied over from Windows.
type mcpMappingID string

const (
	MappingOpenCodeMain mcpMappingID = "opencode-main"
	MappingOpenCodeOhMy mcpMappingID = "opencode-oh-my"
	MappingCodexConfig  mcpMappingID = "codex-config"
)

// ProcessOpenCodeJSON strips cmd /c wrapping from every stdio entry's
// command array in an OpenCode-dialect JSON/JSONC document, for the
// Linux side of the MCP mirror.
func ProcessOpenCodeJSON(content []byte, field string) ([]byte, error) {
	return stripWindowsWrappingJSON(content, field)
}

// ProcessCodexTOML strips cmd /c wrapping from every stdio entry's
// command in a Codex TOML document (process_codex_toml).
func ProcessCodexTOML(content []byte, field string) ([]byte, error) {
	return stripWindowsWrappingTOML(content, field)
}
