package domain

import "time"

// Workspace is owned by the membership service; notes reference it by id.
type Workspace struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

// Role 成员角色
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// CanWrite reports whether the role may add or change notes.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleEditor
}

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleEditor || r == RoleViewer
}

// WorkspaceMember 工作区成员
type WorkspaceMember struct {
	WorkspaceID string
	UserID      string
	Role        Role
	CreatedAt   time.Time
}
