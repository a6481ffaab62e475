package model

import "time"

const (
	TableNameWorkspace       = "workspace"
	TableNameWorkspaceMember = "workspace_member"
)

// Workspace mapped from table <workspace>
type Workspace struct {
	ID        string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	OwnerID   string    `gorm:"column:owner_id;size:64;not null;index:idx_workspace_owner" json:"ownerId"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
}

// TableName Workspace's table name
func (*Workspace) TableName() string {
	return TableNameWorkspace
}

// WorkspaceMember mapped from table <workspace_member>
type WorkspaceMember struct {
	WorkspaceID string    `gorm:"column:workspace_id;primaryKey;size:64" json:"workspaceId"`
	UserID      string    `gorm:"column:user_id;primaryKey;size:64;index:idx_member_user" json:"userId"`
	Role        string    `gorm:"column:role;size:16;not null" json:"role"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
}

// TableName WorkspaceMember's table name
func (*WorkspaceMember) TableName() string {
	return TableNameWorkspaceMember
}
