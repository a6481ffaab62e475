package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/thingspace/thingspace-notes/internal/dto"
	"github.com/thingspace/thingspace-notes/internal/service"
	"github.com/thingspace/thingspace-notes/pkg/code"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotes struct {
	service.NoteService
	lastList *dto.NoteSearchRequest
	listErr  error
}

func (s *stubNotes) List(_ context.Context, params *dto.NoteSearchRequest) (*dto.NoteSearchResponse, error) {
	s.lastList = params
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &dto.NoteSearchResponse{
		Notes: []*dto.NoteSearchResultDTO{{NoteDTO: dto.NoteDTO{ID: "n1", Title: "kafka lag"}, Score: 0.9}},
	}, nil
}

func (s *stubNotes) Get(_ context.Context, id string) (*dto.NoteDTO, error) {
	if id != "n1" {
		return nil, code.ErrorNoteNotFound.WithResource("note", id)
	}
	return &dto.NoteDTO{ID: "n1", Title: "kafka lag"}, nil
}

type stubAccess struct {
	service.AccessService
}

func (stubAccess) WorkspacesForNote(_ context.Context, id string) (*dto.NoteWorkspacesResponse, error) {
	return &dto.NoteWorkspacesResponse{NoteID: id, Workspaces: []string{"w1"}}, nil
}

func call(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestSearchNotes(t *testing.T) {
	notes := &stubNotes{}
	s := NewNotesServer(notes, stubAccess{}, "test", "0.0.0", nil)

	res, err := s.handleSearchNotes(context.Background(), call("search_notes", map[string]interface{}{
		"workspace_id": "w1", "query": "kafka", "tags": "ops,infra", "limit": float64(5),
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var out dto.NoteSearchResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	require.Len(t, out.Notes, 1)
	assert.Equal(t, "n1", out.Notes[0].ID)

	assert.Equal(t, "note", notes.lastList.NoteType)
	assert.Equal(t, []string{"ops,infra"}, notes.lastList.Tags)
	assert.Equal(t, 5, notes.lastList.Limit)
}

func TestSearchNotes_BadInput(t *testing.T) {
	s := NewNotesServer(&stubNotes{}, stubAccess{}, "test", "0.0.0", nil)

	res, err := s.handleSearchNotes(context.Background(), call("search_notes", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleSearchNotes(context.Background(), call("search_notes", map[string]interface{}{
		"workspace_id": "w1", "note_type": "memo",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSearchNotes_InternalErrorIsProtocolError(t *testing.T) {
	s := NewNotesServer(&stubNotes{listErr: errors.New("db down")}, stubAccess{}, "test", "0.0.0", nil)

	_, err := s.handleSearchNotes(context.Background(), call("search_notes", map[string]interface{}{"workspace_id": "w1"}))
	assert.Error(t, err)
}

func TestGetNoteAndWorkspaces(t *testing.T) {
	s := NewNotesServer(&stubNotes{}, stubAccess{}, "test", "0.0.0", nil)
	ctx := context.Background()

	res, err := s.handleGetNote(ctx, call("get_note", map[string]interface{}{"id": "n1"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "kafka lag")

	res, err = s.handleGetNote(ctx, call("get_note", map[string]interface{}{"id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleNoteWorkspaces(ctx, call("note_workspaces", map[string]interface{}{"id": "n1"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "w1")
}
