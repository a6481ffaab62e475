package service

import (
	"context"

	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/internal/dto"
	"github.com/thingspace/thingspace-notes/pkg/code"
	apperrors "github.com/thingspace/thingspace-notes/pkg/errors"
	"github.com/thingspace/thingspace-notes/pkg/logger"
	"github.com/thingspace/thingspace-notes/pkg/timex"
	"github.com/thingspace/thingspace-notes/pkg/writequeue"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// AccessService moves notes between workspaces under access control.
// Every check runs before the first write; a failed check leaves the store as it was.
type AccessService interface {
	// Share relocates the note to destWorkspaceID. The note is never present
	// in both workspaces, nor in neither.
	Share(ctx context.Context, noteID, actorID, destWorkspaceID string) (*dto.NoteDTO, error)

	// Copy inserts an independent duplicate of the note into destWorkspaceID.
	Copy(ctx context.Context, noteID, actorID, destWorkspaceID string) (*dto.NoteDTO, error)

	// WorkspacesForNote resolves the workspace currently holding the note.
	WorkspacesForNote(ctx context.Context, noteID string) (*dto.NoteWorkspacesResponse, error)
}

type accessService struct {
	noteRepo   domain.NoteRepository
	wsRepo     domain.WorkspaceRepository
	writeQueue *writequeue.Manager
	logger     *zap.Logger
}

// NewAccessService 创建 AccessService 实例
func NewAccessService(noteRepo domain.NoteRepository, wsRepo domain.WorkspaceRepository, writeQueue *writequeue.Manager, logger *zap.Logger) AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &accessService{
		noteRepo:   noteRepo,
		wsRepo:     wsRepo,
		writeQueue: writeQueue,
		logger:     logger,
	}
}

var _ AccessService = (*accessService)(nil)

func (s *accessService) Share(ctx context.Context, noteID, actorID, destWorkspaceID string) (*dto.NoteDTO, error) {
	var moved *domain.Note
	err := s.writeQueue.Execute(ctx, noteID, func() error {
		cur, err := s.noteRepo.GetByID(ctx, noteID)
		if err != nil {
			return noteError(err, noteID)
		}
		if err := requireWriter(ctx, s.wsRepo, destWorkspaceID, actorID); err != nil {
			return err
		}
		// moving a note out of a workspace is a write there too
		if err := requireWriter(ctx, s.wsRepo, cur.WorkspaceID, actorID); err != nil {
			return err
		}
		if cur.WorkspaceID == destWorkspaceID {
			moved = cur
			return nil
		}

		moved, err = s.noteRepo.MoveWorkspace(ctx, cur.ID, cur.WorkspaceID, cur.Version, destWorkspaceID)
		return noteError(err, noteID)
	})
	if err != nil {
		s.logDenied("AccessService.Share", noteID, actorID, destWorkspaceID, err)
		return nil, noteError(err, noteID)
	}

	s.logger.Info("note shared",
		zap.String(logger.FieldNoteID, noteID),
		zap.String(logger.FieldUserID, actorID),
		zap.String(logger.FieldDestWorkspaceID, destWorkspaceID))
	return toNoteDTO(moved), nil
}

func (s *accessService) Copy(ctx context.Context, noteID, actorID, destWorkspaceID string) (*dto.NoteDTO, error) {
	var created *domain.Note
	err := s.writeQueue.Execute(ctx, noteID, func() error {
		src, err := s.noteRepo.GetByID(ctx, noteID)
		if err != nil {
			return noteError(err, noteID)
		}
		if err := requireWriter(ctx, s.wsRepo, destWorkspaceID, actorID); err != nil {
			return err
		}
		if err := requireReader(ctx, s.wsRepo, src.WorkspaceID, actorID); err != nil {
			return err
		}

		dup := &domain.Note{}
		if err := copier.CopyWithOption(dup, src, copier.Option{DeepCopy: true}); err != nil {
			return apperrors.NewAppError(code.ErrorServerInternal, err)
		}
		// copier turns a nil vector into an empty one; keep nil so backfill sees it
		dup.Embedding = src.Clone().Embedding
		now := timex.Now().Time()
		dup.ID = uuid.NewString()
		dup.AuthorID = actorID
		dup.WorkspaceID = destWorkspaceID
		dup.Version = 0
		dup.CreatedAt = now
		dup.UpdatedAt = now

		created, err = s.noteRepo.Create(ctx, dup)
		if err != nil {
			return apperrors.NewAppError(code.ErrorDBQuery, err)
		}
		return nil
	})
	if err != nil {
		s.logDenied("AccessService.Copy", noteID, actorID, destWorkspaceID, err)
		return nil, noteError(err, noteID)
	}

	s.logger.Info("note copied",
		zap.String(logger.FieldNoteID, noteID),
		zap.String("copyId", created.ID),
		zap.String(logger.FieldUserID, actorID),
		zap.String(logger.FieldDestWorkspaceID, destWorkspaceID))
	return toNoteDTO(created), nil
}

func (s *accessService) WorkspacesForNote(ctx context.Context, noteID string) (*dto.NoteWorkspacesResponse, error) {
	n, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return nil, noteError(err, noteID)
	}
	return &dto.NoteWorkspacesResponse{NoteID: n.ID, Workspaces: []string{n.WorkspaceID}}, nil
}

func (s *accessService) logDenied(method, noteID, actorID, dest string, err error) {
	if code.IsKind(err, code.KindAccessDenied) {
		s.logger.Warn("note mobility denied",
			zap.String(logger.FieldMethod, method),
			zap.String(logger.FieldNoteID, noteID),
			zap.String(logger.FieldUserID, actorID),
			zap.String(logger.FieldDestWorkspaceID, dest))
	}
}
