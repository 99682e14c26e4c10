// Package model defines the records the engine persists: Skill, MCP Server,
// Tool entry, and Preferences. These are
// plain data types; the packages that mutate them (skillstore, syncengine,
// installer) own the behavior.
package model

// SourceType identifies where a skill's content came from.
type SourceType string

const (
	SourceLocal  SourceType = "local"
	SourceGit    SourceType = "git"
	SourceImport SourceType = "import"
)

// SyncStatus is the outcome of the most recent attempt to propagate an
// entity to a tool.
type SyncStatus string

const (
	StatusOK      SyncStatus = "ok"
	StatusError   SyncStatus = "error"
	StatusPending SyncStatus = "pending"
)

// SyncMode names how a skill was propagated to a tool's skill directory.
type SyncMode string

const (
	ModeSymlink SyncMode = "symlink"
	ModeJunction SyncMode = "junction"
	ModeCopy    SyncMode = "copy"
)

// SkillSyncDetail records the outcome of syncing one skill to one tool.
type SkillSyncDetail struct {
	TargetPath   string     `json:"target_path"`
	Mode         SyncMode   `json:"mode"`
	Status       SyncStatus `json:"status"`
	SyncedAt     int64      `json:"synced_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Skill is a managed unit of agent customization backed by a directory in
// the central store.
type Skill struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	SourceType     SourceType                 `json:"source_type"`
	SourceRef      string                     `json:"source_ref,omitempty"`
	SourceRevision string                     `json:"source_revision,omitempty"`
	CentralPath    string                     `json:"central_path"`
	ContentHash    string                     `json:"content_hash"`
	EnabledTools   map[string]bool            `json:"enabled_tools"`
	SyncDetails    map[string]SkillSyncDetail `json:"sync_details"`
	SortIndex      int                        `json:"sort_index"`
	CreatedAt      int64                      `json:"created_at"`
	UpdatedAt      int64                      `json:"updated_at"`
	LastSyncAt     int64                      `json:"last_sync_at,omitempty"`
}

// EnabledToolList returns the skill's enabled tool keys, in no particular
// order; callers that need determinism should sort the result.
func (s *Skill) EnabledToolList() []string {
	out := make([]string, 0, len(s.EnabledTools))
	for k, on := range s.EnabledTools {
		if on {
			out = append(out, k)
		}
	}
	return out
}

// ServerType identifies the MCP transport an entry describes.
type ServerType string

const (
	ServerStdio ServerType = "stdio"
	ServerHTTP  ServerType = "http"
	ServerSSE   ServerType = "sse"
)

// ServerConfig is the canonical, always-unwrapped shape of an MCP server
// invocation or endpoint.
type ServerConfig struct {
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// MCPSyncDetail records the outcome of syncing one server to one tool.
type MCPSyncDetail struct {
	Status       SyncStatus `json:"status"`
	SyncedAt     int64      `json:"synced_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// MCPServer is a managed Model Context Protocol endpoint definition.
type MCPServer struct {
	ID           string                   `json:"id"`
	Name         string                   `json:"name"`
	SortIndex    int                      `json:"sort_index"`
	ServerType   ServerType               `json:"server_type"`
	ServerConfig ServerConfig             `json:"server_config"`
	EnabledTools map[string]bool          `json:"enabled_tools"`
	SyncDetails  map[string]MCPSyncDetail `json:"sync_details"`
	Description  string                   `json:"description,omitempty"`
	Tags         []string                 `json:"tags,omitempty"`
	Timeout      int                      `json:"timeout,omitempty"`
}

// EnabledToolList returns the server's enabled tool keys, unordered.
func (m *MCPServer) EnabledToolList() []string {
	out := make([]string, 0, len(m.EnabledTools))
	for k, on := range m.EnabledTools {
		if on {
			out = append(out, k)
		}
	}
	return out
}

// MCPFormat names an on-disk MCP config schema.
type MCPFormat string

const (
	FormatJSON     MCPFormat = "json"
	FormatJSONC    MCPFormat = "jsonc"
	FormatTOML     MCPFormat = "toml"
	FormatOpenCode MCPFormat = "opencode"
)

// ToolEntry is one row of the Tool Registry: a built-in constant or a
// database-backed custom declaration.
type ToolEntry struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`

	RelativeSkillsDir string `json:"relative_skills_dir,omitempty"`
	RelativeDetectDir string `json:"relative_detect_dir,omitempty"`
	ForceCopy         bool   `json:"force_copy,omitempty"`

	MCPConfigPath   string    `json:"mcp_config_path,omitempty"`
	MCPConfigFormat MCPFormat `json:"mcp_config_format,omitempty"`
	MCPField        string    `json:"mcp_field,omitempty"`

	Custom bool `json:"custom,omitempty"`
}

// SupportsSkills reports whether this tool entry declares a skills block.
func (t ToolEntry) SupportsSkills() bool { return t.RelativeSkillsDir != "" }

// SupportsMCP reports whether this tool entry declares an MCP block.
func (t ToolEntry) SupportsMCP() bool { return t.MCPConfigPath != "" }

// Preferences is the engine's singleton configuration record.
type Preferences struct {
	CentralRepoPath       string          `json:"central_repo_path"`
	PreferredTools        []string        `json:"preferred_tools"`
	GitCacheCleanupDays   int             `json:"git_cache_cleanup_days"`
	GitCacheTTLSecs       int             `json:"git_cache_ttl_secs"`
	InstalledTools        map[string]bool `json:"installed_tools"`
	ShowInTray            bool            `json:"show_in_tray"`
	SyncDisabledToOpenCode bool           `json:"sync_disabled_to_opencode"`
}

// DefaultPreferences returns the preferences record used when no record has
// been persisted yet.
func DefaultPreferences() Preferences {
	return Preferences{
		CentralRepoPath:     "~/.skills",
		GitCacheCleanupDays: 30,
		GitCacheTTLSecs:     3600,
		InstalledTools:      map[string]bool{},
	}
}
