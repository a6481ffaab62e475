package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/internal/dto"
	"github.com/thingspace/thingspace-notes/pkg/code"
	apperrors "github.com/thingspace/thingspace-notes/pkg/errors"
	"github.com/thingspace/thingspace-notes/pkg/logger"
	"github.com/thingspace/thingspace-notes/pkg/metrics"
	"github.com/thingspace/thingspace-notes/pkg/timex"
	"github.com/thingspace/thingspace-notes/pkg/util"
	"github.com/thingspace/thingspace-notes/pkg/workerpool"
	"github.com/thingspace/thingspace-notes/pkg/writequeue"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoteService 笔记业务服务接口
type NoteService interface {
	// Create 创建笔记. The author must be a writing member of the workspace.
	Create(ctx context.Context, uid string, params *dto.NoteCreateRequest) (*dto.NoteDTO, error)

	// Update applies a partial update. Title or field changes re-embed the note.
	Update(ctx context.Context, uid string, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error)

	// Delete 删除笔记, author only.
	Delete(ctx context.Context, uid string, id string) (*dto.NoteDTO, error)

	// Get 获取单条笔记
	Get(ctx context.Context, id string) (*dto.NoteDTO, error)

	// List 检索笔记
	List(ctx context.Context, params *dto.NoteSearchRequest) (*dto.NoteSearchResponse, error)

	// BackfillEmbeddings embeds up to one batch of notes stored without a
	// vector and returns how many were filled in.
	BackfillEmbeddings(ctx context.Context) (int, error)
}

type noteService struct {
	noteRepo   domain.NoteRepository
	wsRepo     domain.WorkspaceRepository
	embedder   domain.EmbeddingProvider
	search     SearchService
	writeQueue *writequeue.Manager
	pool       *workerpool.Pool
	logger     *zap.Logger
	config     *ServiceConfig
}

// NewNoteService 创建 NoteService 实例. embedder and pool may be nil.
func NewNoteService(noteRepo domain.NoteRepository, wsRepo domain.WorkspaceRepository, embedder domain.EmbeddingProvider,
	search SearchService, writeQueue *writequeue.Manager, pool *workerpool.Pool, logger *zap.Logger, config *ServiceConfig) NoteService {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &noteService{
		noteRepo:   noteRepo,
		wsRepo:     wsRepo,
		embedder:   embedder,
		search:     search,
		writeQueue: writeQueue,
		pool:       pool,
		logger:     logger,
		config:     config,
	}
}

var _ NoteService = (*noteService)(nil)

// embed returns the vector of n, or nil when the provider is unavailable.
func (s *noteService) embed(ctx context.Context, n *domain.Note) []float32 {
	if s.embedder == nil {
		return nil
	}
	vec, err := s.embedder.Embed(ctx, n.EmbeddingText())
	if err != nil {
		s.logger.Info("storing note without embedding",
			zap.String(logger.FieldNoteID, n.ID),
			zap.Error(err))
		return nil
	}
	return vec
}

func (s *noteService) Create(ctx context.Context, uid string, params *dto.NoteCreateRequest) (*dto.NoteDTO, error) {
	now := timex.Now().Time()
	note := &domain.Note{
		ID:          uuid.NewString(),
		AuthorID:    uid,
		WorkspaceID: params.WorkspaceID,
		NoteType:    domain.NoteType(params.NoteType),
		Title:       params.Title,
		Fields:      toDomainFields(params.Fields),
		Tags:        util.NormalizeSet(params.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := note.Validate(); err != nil {
		return nil, code.ErrorNoteInvalid.WithDetails(err.Error())
	}
	if err := requireWriter(ctx, s.wsRepo, note.WorkspaceID, uid); err != nil {
		return nil, err
	}

	note.Embedding = s.embed(ctx, note)

	created, err := s.noteRepo.Create(ctx, note)
	if err != nil {
		s.logger.Error("create note failed",
			zap.String(logger.FieldMethod, "NoteService.Create"),
			zap.String(logger.FieldUserID, uid),
			zap.String(logger.FieldWorkspaceID, note.WorkspaceID),
			zap.Error(err))
		return nil, apperrors.NewAppError(code.ErrorDBQuery, err)
	}
	return toNoteDTO(created), nil
}

func (s *noteService) Update(ctx context.Context, uid string, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error) {
	var updated *domain.Note
	err := s.writeQueue.Execute(ctx, params.ID, func() error {
		cur, err := s.noteRepo.GetByID(ctx, params.ID)
		if err != nil {
			return noteError(err, params.ID)
		}
		if params.Version != 0 && params.Version != cur.Version {
			return code.ErrorNoteConflict.WithResource("note", cur.ID).WithDetails("stale version")
		}
		if err := requireWriter(ctx, s.wsRepo, cur.WorkspaceID, uid); err != nil {
			return err
		}

		next := cur.Clone()
		if params.Title != nil {
			next.Title = *params.Title
		}
		if params.Fields != nil {
			next.Fields = toDomainFields(*params.Fields)
		}
		if params.Tags != nil {
			next.Tags = util.NormalizeSet(*params.Tags)
		}
		if err := next.Validate(); err != nil {
			return code.ErrorNoteInvalid.WithDetails(err.Error())
		}
		if !domain.SameContent(cur, next) {
			next.Embedding = s.embed(ctx, next)
		}
		next.UpdatedAt = timex.Now().Time()

		updated, err = s.noteRepo.Update(ctx, next)
		return noteError(err, cur.ID)
	})
	if err != nil {
		return nil, noteError(err, params.ID)
	}
	return toNoteDTO(updated), nil
}

func (s *noteService) Delete(ctx context.Context, uid string, id string) (*dto.NoteDTO, error) {
	var removed *domain.Note
	err := s.writeQueue.Execute(ctx, id, func() error {
		cur, err := s.noteRepo.GetByID(ctx, id)
		if err != nil {
			return noteError(err, id)
		}
		if cur.AuthorID != uid {
			return code.ErrorNoteOwnerOnly.WithResource("note", id)
		}
		removed, err = s.noteRepo.Delete(ctx, id)
		return noteError(err, id)
	})
	if err != nil {
		return nil, noteError(err, id)
	}
	s.logger.Info("note deleted",
		zap.String(logger.FieldNoteID, id),
		zap.String(logger.FieldUserID, uid))
	return toNoteDTO(removed), nil
}

func (s *noteService) Get(ctx context.Context, id string) (*dto.NoteDTO, error) {
	n, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, noteError(err, id)
	}
	return toNoteDTO(n), nil
}

func (s *noteService) List(ctx context.Context, params *dto.NoteSearchRequest) (*dto.NoteSearchResponse, error) {
	res, err := s.search.Search(ctx, SearchQuery{
		WorkspaceID: params.WorkspaceID,
		NoteType:    domain.NoteType(params.NoteType),
		Tags:        util.NormalizeSet(util.SplitList(params.Tags)),
		Query:       params.Query,
		Limit:       params.Limit,
	})
	if err != nil {
		return nil, err
	}

	out := &dto.NoteSearchResponse{
		Notes:    make([]*dto.NoteSearchResultDTO, 0, len(res.Hits)),
		Degraded: res.Degraded,
	}
	for _, h := range res.Hits {
		out.Notes = append(out.Notes, &dto.NoteSearchResultDTO{NoteDTO: *toNoteDTO(h.Note), Score: h.Score})
	}
	return out, nil
}

func (s *noteService) BackfillEmbeddings(ctx context.Context) (int, error) {
	if s.embedder == nil {
		return 0, nil
	}
	batch := s.config.Backfill.BatchSize
	if batch <= 0 {
		batch = 100
	}
	notes, err := s.noteRepo.ListMissingEmbedding(ctx, batch)
	if err != nil {
		return 0, apperrors.NewAppError(code.ErrorDBQuery, err)
	}
	if len(notes) == 0 {
		return 0, nil
	}

	var (
		filled atomic.Int64
		// set once the provider fails; later notes wait for the next run
		down atomic.Bool
		wg   sync.WaitGroup
	)
	fill := func(ctx context.Context, n *domain.Note) error {
		if down.Load() {
			return nil
		}
		vec, err := s.embedder.Embed(ctx, n.EmbeddingText())
		if err != nil {
			down.Store(true)
			return nil
		}
		err = s.noteRepo.UpdateEmbedding(ctx, n.ID, n.Version, vec)
		if errors.Is(err, domain.ErrVersionConflict) || errors.Is(err, domain.ErrNotFound) {
			// edited or deleted meanwhile; the writer embedded it already
			return nil
		}
		if err != nil {
			return err
		}
		filled.Add(1)
		metrics.BackfillEmbedded.Inc()
		return nil
	}

	for _, n := range notes {
		n := n
		if s.pool == nil {
			if err := fill(ctx, n); err != nil {
				return int(filled.Load()), apperrors.NewAppError(code.ErrorDBQuery, err)
			}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.pool.Submit(ctx, func(ctx context.Context) error { return fill(ctx, n) })
			if err != nil {
				s.logger.Warn("backfill note failed", zap.String(logger.FieldNoteID, n.ID), zap.Error(err))
			}
		}()
	}
	wg.Wait()

	count := int(filled.Load())
	if count > 0 || down.Load() {
		s.logger.Info("embedding backfill finished",
			zap.Int(logger.FieldCount, count),
			zap.Int("candidates", len(notes)),
			zap.Bool("providerDown", down.Load()))
	}
	return count, nil
}
