package memory

import (
	"context"
	"fmt"
	"sync"

	"topicgraph/application/ports"
	"topicgraph/domain/workspace"
)

// WorkspaceRepository stores workspaces in a map. Save is a compare-and-swap
// under a single mutex.
type WorkspaceRepository struct {
	mu         sync.Mutex
	workspaces map[string]workspace.Workspace
}

// NewWorkspaceRepository creates an empty repository
func NewWorkspaceRepository() *WorkspaceRepository {
	return &WorkspaceRepository{workspaces: make(map[string]workspace.Workspace)}
}

var _ ports.WorkspaceRepository = (*WorkspaceRepository)(nil)

// Get returns a copy of the stored workspace
func (r *WorkspaceRepository) Get(_ context.Context, id string) (workspace.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.workspaces[id]
	if !ok {
		return workspace.Workspace{}, workspace.ErrNotFound
	}
	ws.Graph = ws.Graph.Clone()
	return ws, nil
}

// Create stores ws unless the id is taken
func (r *WorkspaceRepository) Create(_ context.Context, ws workspace.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workspaces[ws.ID]; ok {
		return fmt.Errorf("workspace %s already exists: %w", ws.ID, workspace.ErrVersionConflict)
	}
	ws.Graph = ws.Graph.Clone()
	r.workspaces[ws.ID] = ws
	return nil
}

// Save replaces the stored workspace if its version equals expectedVersion
func (r *WorkspaceRepository) Save(_ context.Context, ws workspace.Workspace, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.workspaces[ws.ID]
	if !ok {
		return workspace.ErrNotFound
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: expected %d, current %d", workspace.ErrVersionConflict, expectedVersion, current.Version)
	}
	ws.Graph = ws.Graph.Clone()
	r.workspaces[ws.ID] = ws
	return nil
}

// Delete removes a workspace; unknown ids are not an error
func (r *WorkspaceRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workspaces, id)
	return nil
}
