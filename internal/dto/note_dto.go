// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"github.com/thingspace/thingspace-notes/pkg/timex"
)

// NoteFieldDTO 笔记字段
type NoteFieldDTO struct {
	Label   string `json:"label" binding:"required"`
	Type    string `json:"type" binding:"required,fieldkind"`
	Content string `json:"content"`
}

// NoteDTO is the projection of a note returned to clients; it never carries
// the embedding vector.
type NoteDTO struct {
	ID          string         `json:"id"`
	AuthorID    string         `json:"authorId"`
	WorkspaceID string         `json:"workspaceId"`
	NoteType    string         `json:"noteType"`
	Title       string         `json:"title"`
	Fields      []NoteFieldDTO `json:"fields"`
	Tags        []string       `json:"tags"`
	Version     int64          `json:"version"`
	CreatedAt   timex.Time     `json:"createdAt"`
	UpdatedAt   timex.Time     `json:"updatedAt"`
}

// NoteSearchResultDTO 搜索结果条目
type NoteSearchResultDTO struct {
	NoteDTO
	Score float64 `json:"score"`
}

// NoteCreateRequest 创建笔记请求参数
type NoteCreateRequest struct {
	WorkspaceID string         `json:"workspaceId" form:"workspaceId" binding:"required"`
	NoteType    string         `json:"noteType" form:"noteType" binding:"required,notetype"`
	Title       string         `json:"title" form:"title" binding:"required"`
	Fields      []NoteFieldDTO `json:"fields" form:"fields" binding:"required,min=1,dive"`
	Tags        []string       `json:"tags" form:"tags" binding:"omitempty,dive,required"`
}

// NoteUpdateRequest 修改笔记请求参数
// Absent members keep their stored value; Version enables optimistic checks.
type NoteUpdateRequest struct {
	ID      string          `json:"-"`
	Title   *string         `json:"title" binding:"omitempty,min=1"`
	Fields  *[]NoteFieldDTO `json:"fields" binding:"omitempty,min=1,dive"`
	Tags    *[]string       `json:"tags" binding:"omitempty,dive,required"`
	Version int64           `json:"version" binding:"omitempty,min=1"`
}

// NoteMoveRequest is the body of share and copy.
type NoteMoveRequest struct {
	ID          string `json:"-"`
	WorkspaceID string `json:"workspaceId" form:"workspaceId" binding:"required"`
}

// NoteSearchRequest 笔记检索请求参数
type NoteSearchRequest struct {
	WorkspaceID string   `json:"workspaceId" form:"workspaceId" binding:"required"`
	NoteType    string   `json:"noteType" form:"noteType" binding:"required,notetype"`
	Query       string   `json:"query" form:"query"`
	Tags        []string `json:"tags" form:"tags"`
	Limit       int      `json:"limit" form:"limit" binding:"omitempty,min=1,max=1000"`
}

// NoteSearchResponse 检索结果
type NoteSearchResponse struct {
	Notes []*NoteSearchResultDTO `json:"notes"`
	// Degraded is true when the ranking fell back to lexical only.
	Degraded bool `json:"degraded"`
}

// NoteWorkspacesResponse lists the workspaces that hold the note.
type NoteWorkspacesResponse struct {
	NoteID     string   `json:"noteId"`
	Workspaces []string `json:"workspaces"`
}
