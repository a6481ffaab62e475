package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/pkg/code"
	apperrors "github.com/thingspace/thingspace-notes/pkg/errors"
	"github.com/thingspace/thingspace-notes/pkg/embedding"
	"github.com/thingspace/thingspace-notes/pkg/logger"
	"github.com/thingspace/thingspace-notes/pkg/metrics"
	"github.com/thingspace/thingspace-notes/pkg/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SearchQuery 检索条件
type SearchQuery struct {
	WorkspaceID string
	NoteType    domain.NoteType
	// Tags selects notes carrying any of them; empty selects all.
	Tags  []string
	Query string
	// Limit caps the result, 0 means no cap.
	Limit int
}

// ScoredNote 带分数的笔记
type ScoredNote struct {
	Note  *domain.Note
	Score float64
}

// SearchResult 检索结果
type SearchResult struct {
	Hits []ScoredNote
	// Degraded is set when a non-empty query was ranked without semantics.
	Degraded bool
}

// SearchService ranks the notes of one workspace.
type SearchService interface {
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

type searchService struct {
	noteRepo domain.NoteRepository
	embedder domain.EmbeddingProvider
	sf       singleflight.Group
	config   SearchConfig
	logger   *zap.Logger
}

// NewSearchService 创建 SearchService 实例. embedder may be nil.
func NewSearchService(noteRepo domain.NoteRepository, embedder domain.EmbeddingProvider, config SearchConfig, logger *zap.Logger) SearchService {
	if config.SemanticWeight == 0 && config.LexicalWeight == 0 {
		config.SemanticWeight, config.LexicalWeight = 0.7, 0.3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &searchService{
		noteRepo: noteRepo,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}
}

var _ SearchService = (*searchService)(nil)

func (s *searchService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	candidates, err := s.noteRepo.ListByWorkspace(ctx, q.WorkspaceID, q.NoteType)
	if err != nil {
		s.logger.Error("list candidates failed",
			zap.String(logger.FieldMethod, "SearchService.Search"),
			zap.String(logger.FieldWorkspaceID, q.WorkspaceID),
			zap.Error(err))
		return nil, apperrors.NewAppError(code.ErrorDBQuery, err)
	}

	allowed := make(map[string]struct{})
	for _, t := range util.NormalizeSet(q.Tags) {
		allowed[t] = struct{}{}
	}
	hits := make([]ScoredNote, 0, len(candidates))
	for _, n := range candidates {
		if n.HasAnyTag(allowed) {
			hits = append(hits, ScoredNote{Note: n})
		}
	}
	metrics.SearchCandidates.Observe(float64(len(hits)))

	result := &SearchResult{}
	query := strings.TrimSpace(q.Query)
	if query != "" {
		result.Degraded = s.score(ctx, query, hits)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Note.UpdatedAt.Equal(b.Note.UpdatedAt) {
			return a.Note.UpdatedAt.After(b.Note.UpdatedAt)
		}
		return a.Note.ID < b.Note.ID
	})

	limit := q.Limit
	if limit <= 0 {
		limit = s.config.MaxResults
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	result.Hits = hits
	return result, nil
}

// score fills in the combined score of every hit and reports whether the
// ranking fell back to lexical only.
func (s *searchService) score(ctx context.Context, query string, hits []ScoredNote) bool {
	qv := s.embedQuery(ctx, query)
	degraded := qv == nil
	if degraded {
		metrics.SearchDegraded.Inc()
	}

	lq := newLexicalQuery(query)
	for i := range hits {
		lexical := lq.score(hits[i].Note)
		if degraded || len(hits[i].Note.Embedding) != len(qv) {
			hits[i].Score = lexical
			continue
		}
		semantic := embedding.CosineSimilarity(qv, hits[i].Note.Embedding)
		if semantic < 0 {
			semantic = 0
		}
		hits[i].Score = s.config.SemanticWeight*semantic + s.config.LexicalWeight*lexical
	}
	return degraded
}

// embedQuery embeds the query once; identical concurrent queries share the call.
// A nil result means the provider is unavailable.
func (s *searchService) embedQuery(ctx context.Context, query string) []float32 {
	if s.embedder == nil {
		return nil
	}
	v, err, _ := s.sf.Do(query, func() (interface{}, error) {
		return s.embedder.Embed(ctx, query)
	})
	if err != nil {
		s.logger.Debug("query embedding unavailable, ranking lexically",
			zap.String(logger.FieldMethod, "SearchService.Search"),
			zap.Error(err))
		return nil
	}
	vec, _ := v.([]float32)
	if len(vec) == 0 {
		return nil
	}
	return vec
}
