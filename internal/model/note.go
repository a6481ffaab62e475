package model

import "time"

const TableNameNote = "note"

// NoteField is stored as an element of the JSON encoded fields column.
type NoteField struct {
	Label   string `json:"label"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Note mapped from table <note>
type Note struct {
	ID          string      `gorm:"column:id;primaryKey;size:36" json:"id"`
	AuthorID    string      `gorm:"column:author_id;size:64;not null;index:idx_note_author" json:"authorId"`
	WorkspaceID string      `gorm:"column:workspace_id;size:64;not null;index:idx_note_workspace_type,priority:1" json:"workspaceId"`
	NoteType    string      `gorm:"column:note_type;size:16;not null;index:idx_note_workspace_type,priority:2" json:"noteType"`
	Title       string      `gorm:"column:title;not null" json:"title"`
	Fields      []NoteField `gorm:"column:fields;type:text;serializer:json" json:"fields"`
	Tags        []string    `gorm:"column:tags;type:text;serializer:json" json:"tags"`
	// Embedding little endian float32 blob, NULL when never embedded.
	Embedding []byte    `gorm:"column:embedding" json:"-"`
	Version   int64     `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false;index:idx_note_updated_at" json:"updatedAt"`
}

// TableName Note's table name
func (*Note) TableName() string {
	return TableNameNote
}
