package task

import (
	"context"
	"time"

	"github.com/thingspace/thingspace-notes/internal/app"
	"github.com/thingspace/thingspace-notes/internal/service"
	"github.com/thingspace/thingspace-notes/pkg/logger"

	"go.uber.org/zap"
)

// init 自动注册向量补全任务
func init() {
	Register("embedding-backfill", NewEmbeddingBackfillTask)
}

// EmbeddingBackfillTask embeds notes that were stored while the provider was
// unavailable.
type EmbeddingBackfillTask struct {
	svc      service.NoteService
	schedule string
	logger   *zap.Logger
}

// NewEmbeddingBackfillTask 创建向量补全任务，tasks.backfill 为空时禁用
func NewEmbeddingBackfillTask(a *app.App) (Task, error) {
	schedule := a.Config().Tasks.Backfill
	if schedule == "" || a.Config().Embedding.Provider == "none" {
		return nil, nil
	}
	return newEmbeddingBackfillTask(a.NoteService, schedule, a.Logger()), nil
}

func newEmbeddingBackfillTask(svc service.NoteService, schedule string, lg *zap.Logger) *EmbeddingBackfillTask {
	return &EmbeddingBackfillTask{svc: svc, schedule: schedule, logger: lg}
}

// Name 返回任务名称
func (t *EmbeddingBackfillTask) Name() string {
	return "EmbeddingBackfillTask"
}

// Run 执行一批补全
func (t *EmbeddingBackfillTask) Run(ctx context.Context) error {
	start := time.Now()
	n, err := t.svc.BackfillEmbeddings(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		t.logger.Info(t.Name()+" completed",
			zap.Int(logger.FieldCount, n),
			zap.Duration(logger.FieldDuration, time.Since(start)))
	}
	return nil
}

// Schedule 返回 cron 表达式
func (t *EmbeddingBackfillTask) Schedule() string {
	return t.schedule
}

// IsStartupRun 是否立即执行一次
func (t *EmbeddingBackfillTask) IsStartupRun() bool {
	return true
}
