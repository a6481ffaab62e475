package app

import (
	"context"
	"testing"
	"time"

	"github.com/thingspace/thingspace-notes/internal/dao"
	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("server:\n  http-port: \":9100\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.HttpPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ContextTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 3*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 0.7, cfg.Search.SemanticWeight)
	assert.Equal(t, 0.3, cfg.Search.LexicalWeight)
	assert.Equal(t, 100, cfg.Backfill.BatchSize)
	assert.Equal(t, 100, cfg.WriteQueue.QueueCapacity)
	assert.Equal(t, []string{"*"}, cfg.Cors.AllowedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.GetTokenExpiry())
	assert.Len(t, cfg.GetLimiterRules(), 2)
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("security:\n  token-expiry: soon\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("search:\n  semantic-weight: -1\n"))
	assert.Error(t, err)
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg, err := ParseConfig([]byte("database:\n  path: \":memory:\"\nembedding:\n  provider: none\n"))
	require.NoError(t, err)

	db, err := dao.NewDBEngineWithConfig(cfg.Database, false)
	require.NoError(t, err)

	a, err := NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestNewApp_WiresServices(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.WorkspaceRepo.Create(ctx, &domain.Workspace{ID: "w1", Name: "team", OwnerID: "alice"})
	require.NoError(t, err)
	_, err = a.WorkspaceRepo.UpsertMember(ctx, &domain.WorkspaceMember{WorkspaceID: "w1", UserID: "alice", Role: domain.RoleOwner})
	require.NoError(t, err)

	created, err := a.NoteService.Create(ctx, "alice", &dto.NoteCreateRequest{
		WorkspaceID: "w1",
		NoteType:    "note",
		Title:       "standup",
		Fields:      []dto.NoteFieldDTO{{Label: "body", Type: "text", Content: "ship the search"}},
	})
	require.NoError(t, err)

	res, err := a.NoteService.List(ctx, &dto.NoteSearchRequest{WorkspaceID: "w1", NoteType: "note", Query: "search"})
	require.NoError(t, err)
	require.Len(t, res.Notes, 1)
	assert.Equal(t, created.ID, res.Notes[0].ID)
	// provider "none" never yields a query vector
	assert.True(t, res.Degraded)
	assert.Equal(t, "none", a.Embedder().Name())
}

func TestApp_ShutdownIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Shutdown(context.Background()))
	assert.True(t, a.IsShuttingDown())
	assert.NoError(t, a.Shutdown(context.Background()))
}
