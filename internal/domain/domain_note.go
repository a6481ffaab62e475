package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NoteType 笔记类别
type NoteType string

const (
	NoteTypeNote     NoteType = "note"
	NoteTypeTemplate NoteType = "template"
)

// Valid reports whether t is a known note type.
func (t NoteType) Valid() bool {
	return t == NoteTypeNote || t == NoteTypeTemplate
}

// FieldKind 字段类型
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldNumber   FieldKind = "number"
	FieldDate     FieldKind = "date"
	FieldCheckbox FieldKind = "checkbox"
	FieldLink     FieldKind = "link"
	FieldMedia    FieldKind = "media"
)

func (k FieldKind) Valid() bool {
	switch k {
	case FieldText, FieldNumber, FieldDate, FieldCheckbox, FieldLink, FieldMedia:
		return true
	}
	return false
}

// Field 笔记字段
type Field struct {
	Label   string
	Type    FieldKind
	Content string
}

// Note 笔记领域模型
type Note struct {
	ID          string
	AuthorID    string
	WorkspaceID string
	NoteType    NoteType
	Title       string
	Fields      []Field
	Tags        []string
	// Embedding is nil when the provider was unavailable at the last write.
	Embedding []float32
	// Version increases on every write; stores reject stale versions.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrInvalidNote wraps every note validation failure.
var ErrInvalidNote = errors.New("invalid note")

// Validate checks the invariants a note must hold before it is persisted.
func (n *Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNote)
	}
	if !n.NoteType.Valid() {
		return fmt.Errorf("%w: unknown note type %q", ErrInvalidNote, n.NoteType)
	}
	if len(n.Fields) == 0 {
		return fmt.Errorf("%w: at least one field is required", ErrInvalidNote)
	}
	for i, f := range n.Fields {
		if strings.TrimSpace(f.Label) == "" {
			return fmt.Errorf("%w: field %d has no label", ErrInvalidNote, i)
		}
		if !f.Type.Valid() {
			return fmt.Errorf("%w: field %d has unknown type %q", ErrInvalidNote, i, f.Type)
		}
	}
	seen := make(map[string]struct{}, len(n.Tags))
	for _, t := range n.Tags {
		if _, ok := seen[t]; ok {
			return fmt.Errorf("%w: duplicate tag %q", ErrInvalidNote, t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// EmbeddingText is the text the embedding is derived from: the title followed
// by one "label: content" line per field.
func (n *Note) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(n.Title)
	for _, f := range n.Fields {
		b.WriteString("\n")
		b.WriteString(f.Label)
		b.WriteString(": ")
		b.WriteString(f.Content)
	}
	return b.String()
}

// HasAnyTag reports whether the note carries at least one tag of allowed.
// An empty allowed set matches every note.
func (n *Note) HasAnyTag(allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, t := range n.Tags {
		if _, ok := allowed[t]; ok {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (n *Note) Clone() *Note {
	c := *n
	c.Fields = append([]Field(nil), n.Fields...)
	c.Tags = append([]string(nil), n.Tags...)
	if n.Embedding != nil {
		c.Embedding = append([]float32(nil), n.Embedding...)
	}
	return &c
}

// SameContent reports whether title and fields are equal, i.e. whether the
// embedding of one is valid for the other.
func SameContent(a, b *Note) bool {
	if a.Title != b.Title || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i] != b.Fields[i] {
			return false
		}
	}
	return true
}
