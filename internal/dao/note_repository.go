package dao

import (
	"context"
	"errors"

	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/internal/model"
	"github.com/thingspace/thingspace-notes/pkg/embedding"
	"github.com/thingspace/thingspace-notes/pkg/timex"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// noteRepository 实现 domain.NoteRepository 接口
type noteRepository struct {
	dao *Dao
}

// NewNoteRepository 创建 NoteRepository 实例
func NewNoteRepository(dao *Dao) domain.NoteRepository {
	return &noteRepository{dao: dao}
}

var _ domain.NoteRepository = (*noteRepository)(nil)

func (r *noteRepository) db(ctx context.Context) (*gorm.DB, error) {
	return r.dao.UseWithMigrate(ctx, "note", func(g *gorm.DB) error {
		return model.AutoMigrate(g, "Note")
	})
}

// toDomain 将数据库模型转换为领域模型
func (r *noteRepository) toDomain(m *model.Note) (*domain.Note, error) {
	if m == nil {
		return nil, nil
	}
	vec, err := embedding.Decode(m.Embedding)
	if err != nil {
		return nil, err
	}
	fields := make([]domain.Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		fields = append(fields, domain.Field{Label: f.Label, Type: domain.FieldKind(f.Type), Content: f.Content})
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Note{
		ID:          m.ID,
		AuthorID:    m.AuthorID,
		WorkspaceID: m.WorkspaceID,
		NoteType:    domain.NoteType(m.NoteType),
		Title:       m.Title,
		Fields:      fields,
		Tags:        tags,
		Embedding:   vec,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}, nil
}

// toModel 将领域模型转换为数据库模型
func (r *noteRepository) toModel(n *domain.Note) *model.Note {
	fields := make([]model.NoteField, 0, len(n.Fields))
	for _, f := range n.Fields {
		fields = append(fields, model.NoteField{Label: f.Label, Type: string(f.Type), Content: f.Content})
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return &model.Note{
		ID:          n.ID,
		AuthorID:    n.AuthorID,
		WorkspaceID: n.WorkspaceID,
		NoteType:    string(n.NoteType),
		Title:       n.Title,
		Fields:      fields,
		Tags:        tags,
		Embedding:   embedding.Encode(n.Embedding),
		Version:     n.Version,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func (r *noteRepository) toDomainList(ms []*model.Note) ([]*domain.Note, error) {
	out := make([]*domain.Note, 0, len(ms))
	for _, m := range ms {
		n, err := r.toDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// GetByID reads from the primary so a read that precedes a conditional write
// sees the latest version.
func (r *noteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var m model.Note
	if err := db.Clauses(dbresolver.Write).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return r.toDomain(&m)
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	m := r.toModel(note)
	m.Version = 1
	if err := db.Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m)
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	m := r.toModel(note)
	expected := m.Version
	m.Version = expected + 1

	res := db.Model(m).
		Where("version = ?", expected).
		Select("title", "fields", "tags", "embedding", "version", "updated_at").
		Updates(m)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, r.missOrConflict(ctx, note.ID)
	}
	return r.GetByID(ctx, note.ID)
}

func (r *noteRepository) Delete(ctx context.Context, id string) (*domain.Note, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var m model.Note
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return notFound(err)
		}
		res := tx.Where("id = ?", id).Delete(&model.Note{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m)
}

func (r *noteRepository) ListByWorkspace(ctx context.Context, workspaceID string, noteType domain.NoteType) ([]*domain.Note, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var ms []*model.Note
	err = db.Where("workspace_id = ? AND note_type = ?", workspaceID, string(noteType)).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(ms)
}

func (r *noteRepository) MoveWorkspace(ctx context.Context, id, from string, version int64, to string) (*domain.Note, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	res := db.Model(&model.Note{ID: id}).
		Where("workspace_id = ? AND version = ?", from, version).
		Updates(map[string]interface{}{
			"workspace_id": to,
			"version":      version + 1,
			"updated_at":   timex.Now().Time(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, r.missOrConflict(ctx, id)
	}
	return r.GetByID(ctx, id)
}

func (r *noteRepository) ListMissingEmbedding(ctx context.Context, limit int) ([]*domain.Note, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var ms []*model.Note
	err = db.Where("embedding IS NULL OR length(embedding) = 0").
		Order("updated_at DESC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(ms)
}

func (r *noteRepository) UpdateEmbedding(ctx context.Context, id string, version int64, vec []float32) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&model.Note{ID: id}).
		Where("version = ?", version).
		Update("embedding", embedding.Encode(vec))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// missOrConflict explains a conditional write that matched no row.
func (r *noteRepository) missOrConflict(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrVersionConflict
}
