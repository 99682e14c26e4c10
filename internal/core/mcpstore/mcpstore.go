// Package mcpstore is the MCP Store: CRUD for MCP server records, their
// sort order, and their per-tool sync-status sub-records.
// §2 ("MCP Store") and §3 ("MCP Server"). Unlike the Central Skill Store
// it owns no filesystem state — every server lives entirely in the
// database record.
package mcpstore

import (
	"fmt"

	"github.com/barysiuk/agentsync/internal/core/model"
	"github.com/barysiuk/agentsync/internal/core/store"
	"github.com/google/uuid"
)

const recordCollection = "mcp_servers"

// errServerExists mirrors skillstore's SKILL_EXISTS convention for name
// collisions within the MCP Store.
func errServerExists(name string) error {
	return fmt.Errorf("SERVER_EXISTS|%s", name)
}

// Store owns MCP server records.
type Store struct {
	st store.Store
}

// New returns a Store backed by st.
func New(st store.Store) *Store {
	return &Store{st: st}
}

// Get returns the stored record for name.
func (s *Store) Get(name string) (model.MCPServer, bool, error) {
	var srv model.MCPServer
	err := s.st.Get(recordCollection, name, &srv)
	if err == store.ErrNotFound {
		return model.MCPServer{}, false, nil
	}
	if err != nil {
		return model.MCPServer{}, false, err
	}
	return srv, true, nil
}

// All returns every managed server record, ordered by sort_index.
func (s *Store) All() ([]model.MCPServer, error) {
	keys, err := s.st.Keys(recordCollection)
	if err != nil {
		return nil, err
	}
	out := make([]model.MCPServer, 0, len(keys))
	for _, k := range keys {
		srv, ok, err := s.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, srv)
		}
	}
	sortBySortIndex(out)
	return out, nil
}

func (s *Store) save(srv model.MCPServer) error {
	return s.st.Put(recordCollection, srv.Name, srv)
}

// Create inserts a new server record, assigning id and sort_index
// (max existing + 1) and failing with SERVER_EXISTS|<name> if name
// already names a record.
func (s *Store) Create(srv model.MCPServer) (model.MCPServer, error) {
	if _, ok, err := s.Get(srv.Name); err != nil {
		return model.MCPServer{}, err
	} else if ok {
		return model.MCPServer{}, errServerExists(srv.Name)
	}

	all, err := s.All()
	if err != nil {
		return model.MCPServer{}, err
	}
	maxIndex := -1
	for _, existing := range all {
		if existing.SortIndex > maxIndex {
			maxIndex = existing.SortIndex
		}
	}

	srv.ID = uuid.NewString()
	srv.SortIndex = maxIndex + 1
	if srv.EnabledTools == nil {
		srv.EnabledTools = map[string]bool{}
	}
	if srv.SyncDetails == nil {
		srv.SyncDetails = map[string]model.MCPSyncDetail{}
	}
	if err := s.save(srv); err != nil {
		return model.MCPServer{}, err
	}
	return srv, nil
}

// Update loads name's record, applies mutate to it, and saves the result;
// it fails if name has no record. Every field mutate changes is persisted:
// ToggleTool, SetSyncDetail, DeleteSyncDetail and Reorder are built on it.
func (s *Store) Update(name string, mutate func(*model.MCPServer)) (model.MCPServer, error) {
	srv, ok, err := s.Get(name)
	if err != nil {
		return model.MCPServer{}, err
	}
	if !ok {
		return model.MCPServer{}, fmt.Errorf("mcp server %q not found", name)
	}
	mutate(&srv)
	if err := s.save(srv); err != nil {
		return model.MCPServer{}, err
	}
	return srv, nil
}

// ToggleTool flips whether toolKey is in srv's enabled_tools set.
func (s *Store) ToggleTool(name, toolKey string, enabled bool) (model.MCPServer, error) {
	return s.Update(name, func(srv *model.MCPServer) {
		if srv.EnabledTools == nil {
			srv.EnabledTools = map[string]bool{}
		}
		if enabled {
			srv.EnabledTools[toolKey] = true
		} else {
			delete(srv.EnabledTools, toolKey)
		}
	})
}

// SetSyncDetail records the outcome of syncing name to toolKey.
func (s *Store) SetSyncDetail(name, toolKey string, detail model.MCPSyncDetail) error {
	_, err := s.Update(name, func(srv *model.MCPServer) {
		if srv.SyncDetails == nil {
			srv.SyncDetails = map[string]model.MCPSyncDetail{}
		}
		srv.SyncDetails[toolKey] = detail
	})
	return err
}

// DeleteSyncDetail removes toolKey from name's sync_details, used when a
// tool is disabled or unsynced entirely.
func (s *Store) DeleteSyncDetail(name, toolKey string) error {
	_, err := s.Update(name, func(srv *model.MCPServer) {
		delete(srv.SyncDetails, toolKey)
	})
	return err
}

// Delete removes a server record. Removing its per-tool config entries is
// the Sync Engine's responsibility; callers wanting the full
// delete contract should unsync every tool first.
func (s *Store) Delete(name string) error {
	return s.st.Delete(recordCollection, name)
}

// Reorder assigns sort_index 0..len(names)-1 in the given order. A name
// absent from the store stops the reorder with an error (names before it
// keep their new index); names not mentioned keep their existing index.
func (s *Store) Reorder(names []string) error {
	for i, name := range names {
		idx := i
		if _, err := s.Update(name, func(srv *model.MCPServer) {
			srv.SortIndex = idx
		}); err != nil {
			return fmt.Errorf("reordering %q: %w", name, err)
		}
	}
	return nil
}

func sortBySortIndex(servers []model.MCPServer) {
	for i := 1; i < len(servers); i++ {
		for j := i; j > 0 && servers[j].SortIndex < servers[j-1].SortIndex; j-- {
			servers[j], servers[j-1] = servers[j-1], servers[j]
		}
	}
}
