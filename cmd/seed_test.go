package cmd

import (
	"context"
	"testing"

	"github.com/thingspace/thingspace-notes/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWorkspaceRepo struct {
	domain.WorkspaceRepository
	workspaces map[string]*domain.Workspace
	members    map[string]domain.Role
}

func newMemWorkspaceRepo() *memWorkspaceRepo {
	return &memWorkspaceRepo{workspaces: map[string]*domain.Workspace{}, members: map[string]domain.Role{}}
}

func (r *memWorkspaceRepo) GetByID(_ context.Context, id string) (*domain.Workspace, error) {
	if ws, ok := r.workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memWorkspaceRepo) Create(_ context.Context, ws *domain.Workspace) (*domain.Workspace, error) {
	r.workspaces[ws.ID] = ws
	return ws, nil
}

func (r *memWorkspaceRepo) UpsertMember(_ context.Context, m *domain.WorkspaceMember) (*domain.WorkspaceMember, error) {
	r.members[m.WorkspaceID+"/"+m.UserID] = m.Role
	return m, nil
}

func TestSeedWorkspace(t *testing.T) {
	repo := newMemWorkspaceRepo()
	f := &seedFlags{workspace: "demo", owner: "admin", members: []string{"bob:editor", "eve:viewer"}}

	require.NoError(t, seedWorkspace(context.Background(), repo, f))
	assert.Equal(t, "admin", repo.workspaces["demo"].OwnerID)
	assert.Equal(t, domain.RoleOwner, repo.members["demo/admin"])
	assert.Equal(t, domain.RoleEditor, repo.members["demo/bob"])
	assert.Equal(t, domain.RoleViewer, repo.members["demo/eve"])

	// second run keeps the workspace and upserts members again
	require.NoError(t, seedWorkspace(context.Background(), repo, f))
	assert.Len(t, repo.workspaces, 1)
}

func TestSeedWorkspace_RejectsBadMember(t *testing.T) {
	for _, m := range []string{"bob", ":editor", "bob:admin"} {
		f := &seedFlags{workspace: "demo", owner: "admin", members: []string{m}}
		assert.Error(t, seedWorkspace(context.Background(), newMemWorkspaceRepo(), f), m)
	}
}

func TestSeedNote(t *testing.T) {
	first := seedNote("demo", 0)
	assert.Equal(t, "demo", first.WorkspaceID)
	assert.Equal(t, "note", first.NoteType)
	assert.Equal(t, "kafka notes #0", first.Title)
	require.Len(t, first.Fields, 1)

	ninth := seedNote("demo", 9)
	assert.Equal(t, []string{"planning", "planning"}, ninth.Tags)
}
