// Package workerpool 提供 goroutine 生命周期管理的 Worker Pool 实现
// 用于限制并发 goroutine 数量，防止资源泄漏
//
// The pool is a thin layer over ants: it adds context aware submission,
// result propagation and a bounded shutdown.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// 错误定义
var (
	// ErrWorkerPoolFull 当任务队列已满时返回
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed 当 Worker Pool 已关闭时返回
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
	// ErrTaskCancelled 当任务被取消时返回
	ErrTaskCancelled = errors.New("task was cancelled")
)

// Config Worker Pool 配置
type Config struct {
	// MaxWorkers 最大并发 worker 数量
	MaxWorkers int `yaml:"max-workers" default:"8"`
	// QueueSize 等待中的最大任务数
	QueueSize int `yaml:"queue-size" default:"1000"`
	// WarningPercent 告警阈值百分比
	WarningPercent float64 `yaml:"warning-percent" default:"0.8"`
	// IdleTimeout idle workers are reclaimed after this long
	IdleTimeout time.Duration `yaml:"idle-timeout" default:"5m"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxWorkers:     8,
		QueueSize:      1000,
		WarningPercent: 0.8,
		IdleTimeout:    5 * time.Minute,
	}
}

// Pool 管理 goroutine 生命周期的 Worker Pool
type Pool struct {
	config Config
	logger *zap.Logger
	pool   *ants.Pool

	activeCount atomic.Int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type antsLogger struct {
	l *zap.SugaredLogger
}

func (a antsLogger) Printf(format string, args ...interface{}) {
	a.l.Infof(format, args...)
}

// New 创建新的 Worker Pool
// cfg: 配置，如果为 nil 则使用默认配置
// logger: zap 日志器，如果为 nil 则使用 nop logger
func New(cfg *Config, logger *zap.Logger) (*Pool, error) {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	// 应用默认值
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WarningPercent <= 0 || cfg.WarningPercent > 1 {
		cfg.WarningPercent = 0.8
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{config: *cfg, logger: logger}

	pool, err := ants.NewPool(cfg.MaxWorkers,
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithExpiryDuration(cfg.IdleTimeout),
		ants.WithLogger(antsLogger{l: logger.Sugar()}),
		ants.WithPanicHandler(func(r interface{}) {
			logger.Error("worker pool task panic", zap.Any("panic", r))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	p.pool = pool

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", cfg.MaxWorkers),
		zap.Int("queueSize", cfg.QueueSize),
		zap.Float64("warningPercent", cfg.WarningPercent))

	return p, nil
}

// run 执行单个任务
func (p *Pool) run(ctx context.Context, fn func(context.Context) error) (err error) {
	p.activeCount.Add(1)
	defer p.activeCount.Add(-1)

	// 检查告警阈值
	p.checkWarningThreshold()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()

	if ctx.Err() != nil {
		return ErrTaskCancelled
	}
	return fn(ctx)
}

// checkWarningThreshold 检查是否超过告警阈值
func (p *Pool) checkWarningThreshold() {
	active := p.activeCount.Load()
	threshold := int64(float64(p.config.MaxWorkers) * p.config.WarningPercent)

	if threshold > 0 && active >= threshold {
		p.logger.Debug("worker pool approaching capacity",
			zap.Int64("activeCount", active),
			zap.Int("maxWorkers", p.config.MaxWorkers))
	}
}

func (p *Pool) submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		task()
	})
	if err != nil {
		p.wg.Done()
		if errors.Is(err, ants.ErrPoolOverload) {
			return ErrWorkerPoolFull
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrWorkerPoolClosed
		}
		return err
	}
	return nil
}

// Submit 提交任务并等待完成
// 返回任务执行结果或错误（池满/已关闭）
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	if err := p.submit(func() { done <- p.run(ctx, fn) }); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitAsync 异步提交任务（不等待结果）
// Blocks while the pool is saturated and the wait list has room.
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.submit(func() {
		if err := p.run(ctx, fn); err != nil && !errors.Is(err, ErrTaskCancelled) {
			p.logger.Warn("async task failed", zap.Error(err))
		}
	})
}

// ActiveCount 返回当前活跃任务数
func (p *Pool) ActiveCount() int64 {
	return p.activeCount.Load()
}

// IsClosed 返回 Worker Pool 是否已关闭
func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Shutdown 关闭 Worker Pool，等待所有任务完成
// ctx 用于控制关闭超时
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("worker pool shutting down",
		zap.Int64("activeCount", p.activeCount.Load()),
		zap.Int("waiting", p.pool.Waiting()))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.pool.Release()
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.pool.Release()
		p.logger.Warn("worker pool shutdown timeout")
		return ctx.Err()
	}
}

// Metrics 返回 Worker Pool 的指标
type Metrics struct {
	MaxWorkers  int
	ActiveCount int64
	Running     int
	Waiting     int
	IsClosed    bool
}

// GetMetrics 获取当前指标
func (p *Pool) GetMetrics() Metrics {
	return Metrics{
		MaxWorkers:  p.config.MaxWorkers,
		ActiveCount: p.activeCount.Load(),
		Running:     p.pool.Running(),
		Waiting:     p.pool.Waiting(),
		IsClosed:    p.IsClosed(),
	}
}
