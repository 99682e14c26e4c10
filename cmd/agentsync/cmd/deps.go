package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/barysiuk/agentsync/internal/core/engine"
	"github.com/barysiuk/agentsync/internal/core/pathutil"
	"github.com/barysiuk/agentsync/internal/core/store"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	st     store.Store
	eng    *engine.Engine
	cfgDir string // platform config root, e.g. ~/.config or %APPDATA%
}

// newDeps opens the document store rooted at the platform config
// directory (%APPDATA%/agentsync/db on Windows, ~/.config/agentsync/db
// elsewhere) and constructs an Engine over it.
func newDeps() (*deps, error) {
	cfgDir, err := pathutil.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	dbDir := filepath.Join(cfgDir, "agentsync", "db")
	st := store.NewJSONFileStore(dbDir)

	prefs, err := engine.LoadPreferences(st)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}

	eng, err := engine.New(st, engine.Config{
		GitCacheRoot: filepath.Join(cfgDir, "agentsync", "git-cache"),
		GitCacheTTL:  time.Duration(prefs.GitCacheTTLSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing engine: %w", err)
	}
	return &deps{st: st, eng: eng, cfgDir: filepath.Join(cfgDir, "agentsync")}, nil
}
