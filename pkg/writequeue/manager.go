// Package writequeue serializes mutations per key.
// Package writequeue 按 key 串行化写操作
//
// Every key (a note id) gets a lazily started FIFO queue drained by a single
// worker, so two mutations of the same note never interleave while mutations
// of different notes run in parallel. Idle queues are reclaimed.
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull 当队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed 当写队列管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout 当写操作超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config 写队列配置
type Config struct {
	// QueueCapacity per-key queue capacity
	QueueCapacity int `yaml:"queue-capacity" default:"100"`
	// WriteTimeout bounds queueing plus execution of one operation
	WriteTimeout time.Duration `yaml:"write-timeout" default:"30s"`
	// IdleTimeout 空闲清理超时时间
	IdleTimeout time.Duration `yaml:"idle-timeout" default:"10m"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

type keyQueue struct {
	key      string
	ch       chan writeOp
	lastUsed atomic.Int64
	workerWg sync.WaitGroup

	// mu orders pushes against closing: nothing is pushed once closed is set.
	mu     sync.RWMutex
	closed bool
	stopCh chan struct{}
}

// push enqueues op unless the queue was closed. ok is false when closed.
func (q *keyQueue) push(op writeOp) (ok bool, err error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false, nil
	}
	select {
	case q.ch <- op:
		q.lastUsed.Store(time.Now().UnixNano())
		return true, nil
	default:
		return true, ErrWriteQueueFull
	}
}

// close stops the queue. With onlyIfEmpty it refuses when operations wait.
func (q *keyQueue) close(onlyIfEmpty bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || (onlyIfEmpty && len(q.ch) > 0) {
		return false
	}
	q.closed = true
	close(q.stopCh)
	return true
}

func (q *keyQueue) isClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Manager owns the queues of all keys.
type Manager struct {
	config Config
	logger *zap.Logger

	queues sync.Map // map[string]*keyQueue

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	cleanupWg   sync.WaitGroup
	cleanupDone chan struct{}
}

// New creates write queue manager; nil cfg or logger use defaults.
// New 创建写队列管理器
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:      c,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	m.cleanupWg.Add(1)
	go m.cleanupIdleQueues()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))

	return m
}

// Execute runs fn after every operation previously submitted for key.
// Operations whose deadline passed before their turn are skipped, so a caller
// that got ErrWriteTimeout can rely on fn not running later.
// Execute 执行写操作，同一 key 的写操作按 FIFO 顺序处理
func (m *Manager) Execute(ctx context.Context, key string, fn func() error) error {
	if m.IsClosed() {
		return ErrWriteQueueClosed
	}

	opCtx, cancel := context.WithTimeout(ctx, m.config.WriteTimeout)
	defer cancel()

	op := writeOp{
		ctx:    opCtx,
		fn:     fn,
		result: make(chan error, 1),
	}

	for {
		queue := m.getOrCreateQueue(key)
		if queue == nil {
			return ErrWriteQueueClosed
		}
		ok, err := queue.push(op)
		if err != nil {
			return err
		}
		if ok {
			break
		}
		// Queue reclaimed between lookup and push; replace it.
		m.queues.CompareAndDelete(key, queue)
	}

	select {
	case err := <-op.result:
		return err
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrWriteTimeout
	case <-m.ctx.Done():
		return ErrWriteQueueClosed
	}
}

// getOrCreateQueue 获取或创建写队列（懒加载）
func (m *Manager) getOrCreateQueue(key string) *keyQueue {
	if v, ok := m.queues.Load(key); ok {
		queue := v.(*keyQueue)
		if !queue.isClosed() {
			return queue
		}
		m.queues.CompareAndDelete(key, queue)
	}

	if m.IsClosed() {
		return nil
	}

	queue := &keyQueue{
		key:    key,
		ch:     make(chan writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
	}
	queue.lastUsed.Store(time.Now().UnixNano())

	actual, loaded := m.queues.LoadOrStore(key, queue)
	if loaded {
		return actual.(*keyQueue)
	}

	queue.workerWg.Add(1)
	go m.worker(queue)

	m.logger.Debug("created write queue", zap.String("key", key))
	return queue
}

func (m *Manager) worker(queue *keyQueue) {
	defer queue.workerWg.Done()
	defer m.logger.Debug("write queue worker stopped", zap.String("key", queue.key))

	for {
		select {
		case <-m.ctx.Done():
			m.drainQueue(queue)
			return
		case <-queue.stopCh:
			m.drainQueue(queue)
			return
		case op := <-queue.ch:
			m.executeOp(queue, op)
		}
	}
}

func (m *Manager) executeOp(queue *keyQueue, op writeOp) {
	queue.lastUsed.Store(time.Now().UnixNano())

	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("write operation panic",
					zap.String("key", queue.key),
					zap.Any("panic", r),
					zap.Stack("stack"))
				err = errors.New("write operation panicked")
			}
		}()
		err = op.fn()
	}()

	op.result <- err
}

func (m *Manager) drainQueue(queue *keyQueue) {
	for {
		select {
		case op := <-queue.ch:
			m.executeOp(queue, op)
		default:
			return
		}
	}
}

func (m *Manager) cleanupIdleQueues() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.cleanupDone:
			return
		case <-ticker.C:
			m.doCleanup()
		}
	}
}

// doCleanup 执行一次清理
func (m *Manager) doCleanup() {
	now := time.Now().UnixNano()
	idleThreshold := m.config.IdleTimeout.Nanoseconds()

	m.queues.Range(func(key, value interface{}) bool {
		queue := value.(*keyQueue)
		if now-queue.lastUsed.Load() <= idleThreshold {
			return true
		}
		if queue.close(true) {
			m.queues.CompareAndDelete(key, queue)
			m.logger.Debug("cleaned up idle write queue", zap.String("key", queue.key))
		}
		return true
	})
}

// Shutdown stops accepting work and waits for queued operations.
// Shutdown 关闭写队列管理器，等待所有操作完成
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")
	close(m.cleanupDone)

	done := make(chan struct{})
	go func() {
		m.queues.Range(func(_, value interface{}) bool {
			value.(*keyQueue).close(false)
			return true
		})
		m.queues.Range(func(_, value interface{}) bool {
			value.(*keyQueue).workerWg.Wait()
			return true
		})
		m.cleanupWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		m.cancel()
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout, forcing cancellation")
		m.cancel()
		return ctx.Err()
	}
}

// QueueCount returns the number of live queues.
func (m *Manager) QueueCount() int {
	count := 0
	m.queues.Range(func(_, value interface{}) bool {
		if !value.(*keyQueue).isClosed() {
			count++
		}
		return true
	})
	return count
}

// IsClosed 返回管理器是否已关闭
func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
