package dao

import (
	"context"

	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// workspaceRepository 实现 domain.WorkspaceRepository 接口
type workspaceRepository struct {
	dao *Dao
}

// NewWorkspaceRepository 创建 WorkspaceRepository 实例
func NewWorkspaceRepository(dao *Dao) domain.WorkspaceRepository {
	return &workspaceRepository{dao: dao}
}

var _ domain.WorkspaceRepository = (*workspaceRepository)(nil)

func (r *workspaceRepository) db(ctx context.Context) (*gorm.DB, error) {
	return r.dao.UseWithMigrate(ctx, "workspace", func(g *gorm.DB) error {
		return model.AutoMigrate(g, "Workspace")
	})
}

func (r *workspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var m model.Workspace
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &domain.Workspace{ID: m.ID, Name: m.Name, OwnerID: m.OwnerID, CreatedAt: m.CreatedAt.UTC()}, nil
}

func (r *workspaceRepository) GetMember(ctx context.Context, workspaceID, userID string) (*domain.WorkspaceMember, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var m model.WorkspaceMember
	if err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return memberToDomain(&m), nil
}

func (r *workspaceRepository) Create(ctx context.Context, ws *domain.Workspace) (*domain.Workspace, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	m := &model.Workspace{ID: ws.ID, Name: ws.Name, OwnerID: ws.OwnerID, CreatedAt: ws.CreatedAt}
	if err := db.Create(m).Error; err != nil {
		return nil, err
	}
	return &domain.Workspace{ID: m.ID, Name: m.Name, OwnerID: m.OwnerID, CreatedAt: m.CreatedAt}, nil
}

func (r *workspaceRepository) UpsertMember(ctx context.Context, member *domain.WorkspaceMember) (*domain.WorkspaceMember, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	m := &model.WorkspaceMember{
		WorkspaceID: member.WorkspaceID,
		UserID:      member.UserID,
		Role:        string(member.Role),
		CreatedAt:   member.CreatedAt,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(m).Error
	if err != nil {
		return nil, err
	}
	return memberToDomain(m), nil
}

func memberToDomain(m *model.WorkspaceMember) *domain.WorkspaceMember {
	return &domain.WorkspaceMember{
		WorkspaceID: m.WorkspaceID,
		UserID:      m.UserID,
		Role:        domain.Role(m.Role),
		CreatedAt:   m.CreatedAt.UTC(),
	}
}
