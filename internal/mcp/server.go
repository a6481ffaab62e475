// Package mcp exposes read only note tools over the Model Context Protocol.
package mcp

import (
	"context"

	"github.com/thingspace/thingspace-notes/internal/dto"
	"github.com/thingspace/thingspace-notes/internal/service"
	"github.com/thingspace/thingspace-notes/pkg/code"
	"github.com/thingspace/thingspace-notes/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// NotesServer 笔记 MCP 服务
type NotesServer struct {
	notes     service.NoteService
	access    service.AccessService
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewNotesServer 创建 MCP 服务并注册工具
func NewNotesServer(notes service.NoteService, access service.AccessService, name, version string, lg *zap.Logger) *NotesServer {
	if lg == nil {
		lg = zap.NewNop()
	}
	s := &NotesServer{
		notes:  notes,
		access: access,
		logger: lg,
	}
	s.mcpServer = server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()
	return s
}

// GetMCPServer 返回底层 MCP 服务
func (s *NotesServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *NotesServer) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *NotesServer) registerTools() {
	searchTool := mcp.NewTool("search_notes",
		mcp.WithDescription("Rank the notes of a workspace by relevance to a query. Without a query the most recently updated notes come first."),
		mcp.WithString("workspace_id",
			mcp.Required(),
			mcp.Description("Workspace to search"),
		),
		mcp.WithString("note_type",
			mcp.Description("note or template (default: note)"),
		),
		mcp.WithString("query",
			mcp.Description("Free text query (optional)"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma separated tags; a note matches when it has any of them (optional)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchNotes)

	getNoteTool := mcp.NewTool("get_note",
		mcp.WithDescription("Get a note by id"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Note id"),
		),
	)
	s.mcpServer.AddTool(getNoteTool, s.handleGetNote)

	workspacesTool := mcp.NewTool("note_workspaces",
		mcp.WithDescription("Resolve the workspace currently holding a note"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Note id"),
		),
	)
	s.mcpServer.AddTool(workspacesTool, s.handleNoteWorkspaces)
}

func (s *NotesServer) handleSearchNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := request.RequireString("workspace_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	noteType := request.GetString("note_type", "note")
	if noteType != "note" && noteType != "template" {
		return mcp.NewToolResultError("note_type must be note or template"), nil
	}

	res, err := s.notes.List(ctx, &dto.NoteSearchRequest{
		WorkspaceID: ws,
		NoteType:    noteType,
		Query:       request.GetString("query", ""),
		Tags:        []string{request.GetString("tags", "")},
		Limit:       request.GetInt("limit", 10),
	})
	return s.result("search_notes", res, err)
}

func (s *NotesServer) handleGetNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.Get(ctx, id)
	return s.result("get_note", note, err)
}

func (s *NotesServer) handleNoteWorkspaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.access.WorkspacesForNote(ctx, id)
	return s.result("note_workspaces", res, err)
}

// result encodes v as JSON text. Domain failures become tool errors the model
// can read; internal failures are protocol errors.
func (s *NotesServer) result(tool string, v interface{}, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if code.KindOf(err) == code.KindInternal {
			s.logger.Error("mcp tool failed", zap.String(logger.FieldMethod, tool), zap.Error(err))
			return nil, err
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
