package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type field struct {
	Label string `json:"label" binding:"required"`
	Type  string `json:"type" binding:"required,fieldkind"`
}

type request struct {
	Title    string  `json:"title" binding:"required"`
	NoteType string  `json:"noteType" binding:"required,notetype"`
	Fields   []field `json:"fields" binding:"required,min=1,dive"`
}

func TestCustomValidator(t *testing.T) {
	v := NewCustomValidator()

	ok := &request{Title: "t", NoteType: "note", Fields: []field{{Label: "a", Type: "text"}}}
	assert.NoError(t, v.ValidateStruct(ok))

	bad := &request{Title: "t", NoteType: "memo", Fields: []field{{Label: "a", Type: "sound"}}}
	err := v.ValidateStruct(bad)
	require.Error(t, err)

	var tags []string
	for _, fe := range err.(validator.ValidationErrors) {
		tags = append(tags, fe.Tag())
	}
	assert.ElementsMatch(t, []string{"notetype", "fieldkind"}, tags)

	assert.Error(t, v.ValidateStruct(&request{NoteType: "note"}))
}

func TestTranslator(t *testing.T) {
	v := NewCustomValidator()
	uni, err := NewTranslator(v)
	require.NoError(t, err)

	trans, found := uni.GetTranslator("en")
	require.True(t, found)

	err = v.ValidateStruct(&request{Title: "t", NoteType: "memo", Fields: []field{{Label: "a", Type: "text"}}})
	require.Error(t, err)
	msgs := err.(validator.ValidationErrors).Translate(trans)
	assert.Contains(t, msgs["request.noteType"], "noteType must be one of note, template")
}
