// Package domain 定义领域模型和接口
package domain

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by repositories when the record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when the stored version moved since it was read.
	ErrVersionConflict = errors.New("version conflict")
)

// NoteRepository 笔记仓储接口
// Every method is atomic for a single note.
type NoteRepository interface {
	// GetByID returns ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*Note, error)

	// Create inserts a new note with Version 1.
	Create(ctx context.Context, note *Note) (*Note, error)

	// Update replaces the note if its stored version equals note.Version and
	// returns it with the version incremented. ErrNotFound / ErrVersionConflict.
	Update(ctx context.Context, note *Note) (*Note, error)

	// Delete removes the note and returns what was removed.
	Delete(ctx context.Context, id string) (*Note, error)

	// ListByWorkspace returns every note of the given type in the workspace.
	ListByWorkspace(ctx context.Context, workspaceID string, noteType NoteType) ([]*Note, error)

	// MoveWorkspace reassigns the note from one workspace to another in a single
	// conditional write: it only applies while the note still sits in from at
	// version. ErrNotFound / ErrVersionConflict.
	MoveWorkspace(ctx context.Context, id, from string, version int64, to string) (*Note, error)

	// ListMissingEmbedding returns up to limit notes without an embedding.
	ListMissingEmbedding(ctx context.Context, limit int) ([]*Note, error)

	// UpdateEmbedding stores vec if the note is still at version. It does not
	// bump the version or the update time.
	UpdateEmbedding(ctx context.Context, id string, version int64, vec []float32) error
}

// WorkspaceRepository 工作区仓储接口
type WorkspaceRepository interface {
	GetByID(ctx context.Context, id string) (*Workspace, error)

	// GetMember returns ErrNotFound when the user is not a member.
	GetMember(ctx context.Context, workspaceID, userID string) (*WorkspaceMember, error)

	Create(ctx context.Context, ws *Workspace) (*Workspace, error)

	// UpsertMember adds the user or changes their role.
	UpsertMember(ctx context.Context, m *WorkspaceMember) (*WorkspaceMember, error)
}
