package service

import (
	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/internal/dto"
	"github.com/thingspace/thingspace-notes/pkg/timex"
)

// toNoteDTO projects a stored note onto the response shape, dropping the vector.
func toNoteDTO(n *domain.Note) *dto.NoteDTO {
	if n == nil {
		return nil
	}
	fields := make([]dto.NoteFieldDTO, 0, len(n.Fields))
	for _, f := range n.Fields {
		fields = append(fields, dto.NoteFieldDTO{Label: f.Label, Type: string(f.Type), Content: f.Content})
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return &dto.NoteDTO{
		ID:          n.ID,
		AuthorID:    n.AuthorID,
		WorkspaceID: n.WorkspaceID,
		NoteType:    string(n.NoteType),
		Title:       n.Title,
		Fields:      fields,
		Tags:        append([]string(nil), tags...),
		Version:     n.Version,
		CreatedAt:   timex.Time(n.CreatedAt),
		UpdatedAt:   timex.Time(n.UpdatedAt),
	}
}

func toDomainFields(in []dto.NoteFieldDTO) []domain.Field {
	out := make([]domain.Field, 0, len(in))
	for _, f := range in {
		out = append(out, domain.Field{Label: f.Label, Type: domain.FieldKind(f.Type), Content: f.Content})
	}
	return out
}
