package tool

import "github.com/barysiuk/agentsync/internal/core/model"

// builtins is the compile-time Tool Registry table. Entries are immutable
// string literals; paths are stored in the engine's prefix form ("~/...")
// and expanded through pathutil only when a caller needs a concrete path.
var builtins = []model.ToolEntry{
	{
		Key:               "claude_code",
		DisplayName:       "Claude Code",
		RelativeSkillsDir: "~/.claude/skills",
		RelativeDetectDir: "~/.claude",
		MCPConfigPath:     "~/.claude.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "mcpServers",
	},
	{
		Key:               "codex",
		DisplayName:       "Codex",
		RelativeSkillsDir: "~/.codex/skills",
		RelativeDetectDir: "~/.codex",
		MCPConfigPath:     "~/.codex/config.toml",
		MCPConfigFormat:   model.FormatTOML,
		MCPField:          "mcp_servers",
	},
	{
		Key:               "gemini_cli",
		DisplayName:       "Gemini CLI",
		RelativeSkillsDir: "~/.gemini/skills",
		RelativeDetectDir: "~/.gemini",
		MCPConfigPath:     "~/.gemini/settings.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "mcpServers",
	},
	{
		Key:               "cursor",
		DisplayName:       "Cursor",
		RelativeSkillsDir: "~/.cursor/skills",
		RelativeDetectDir: "~/.cursor",
		ForceCopy:         true, // Cursor supports no symlinks; always copy.
		MCPConfigPath:     "~/.cursor/mcp.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "mcpServers",
	},
	{
		Key:               "windsurf",
		DisplayName:       "Windsurf",
		RelativeSkillsDir: "~/.codeium/windsurf/skills",
		RelativeDetectDir: "~/.codeium/windsurf",
		MCPConfigPath:     "~/.codeium/windsurf/mcp_config.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "mcpServers",
	},
	{
		Key:               "opencode",
		DisplayName:       "OpenCode",
		RelativeSkillsDir: "%APPDATA%/opencode/skill",
		RelativeDetectDir: "%APPDATA%/opencode",
		MCPConfigPath:     "%APPDATA%/opencode/opencode.jsonc",
		MCPConfigFormat:   model.FormatOpenCode,
		MCPField:          "mcp",
	},
	{
		Key:               "amp",
		DisplayName:       "Amp",
		RelativeDetectDir: "%APPDATA%/Code/User",
		MCPConfigPath:     "%APPDATA%/Code/User/mcp.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "servers",
	},
	{
		Key:               "github_copilot",
		DisplayName:       "GitHub Copilot",
		RelativeSkillsDir: "~/.copilot/skills",
		RelativeDetectDir: "~/.copilot",
		MCPConfigPath:     "%APPDATA%/Code/User/mcp.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "servers",
	},
	{
		Key:               "roo_code",
		DisplayName:       "Roo Code",
		RelativeDetectDir: "%APPDATA%/Code/User/globalStorage/rooveterinaryinc.roo-cline",
		MCPConfigPath:     "%APPDATA%/Code/User/globalStorage/rooveterinaryinc.roo-cline/settings/mcp_settings.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "mcpServers",
	},
	{
		Key:               "kilo_code",
		DisplayName:       "Kilo Code",
		RelativeDetectDir: "%APPDATA%/Code/User/globalStorage/kilocode.kilo-code",
		MCPConfigPath:     "%APPDATA%/Code/User/globalStorage/kilocode.kilo-code/settings/mcp_settings.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "mcpServers",
	},
	{
		Key:               "factory",
		DisplayName:       "Factory",
		RelativeDetectDir: "~/.factory",
		MCPConfigPath:     "~/.factory/mcp.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "mcpServers",
	},
	{
		Key:               "codeium",
		DisplayName:       "Codeium",
		RelativeDetectDir: "~/.codeium",
		MCPConfigPath:     "~/.codeium/mcp_config.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "mcpServers",
	},
	{
		Key:               "gemini_antigravity",
		DisplayName:       "Gemini Antigravity",
		RelativeDetectDir: "~/.gemini/antigravity",
		MCPConfigPath:     "~/.gemini/antigravity/mcp_config.json",
		MCPConfigFormat:   model.FormatJSON,
		MCPField:          "mcpServers",
	},
	{
		Key:               "goose",
		DisplayName:       "Goose",
		RelativeSkillsDir: "~/.config/goose/skills",
		RelativeDetectDir: "~/.config/goose",
		// Skills only: Goose has no MCP config path in the Tool Registry.
	},
	{
		Key:               "openclaw",
		DisplayName:       "OpenClaw",
		RelativeSkillsDir: "~/.openclaw/skills",
		RelativeDetectDir: "~/.openclaw",
		// Skills only: OpenClaw has no MCP config path in the Tool Registry.
	},
}
