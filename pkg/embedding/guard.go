package embedding

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/thingspace/thingspace-notes/pkg/metrics"

	"go.uber.org/zap"
)

const DefaultTimeout = 3 * time.Second

// Guard bounds calls to a provider. Every failure (error, timeout, panic,
// vector of the wrong size) comes back as ErrUnavailable.
type Guard struct {
	inner   Provider
	timeout time.Duration
	dims    atomic.Int64
	logger  *zap.Logger
	closer  io.Closer
	// disabled is set for provider "none"; lexical-only search is the configured state
	disabled bool
}

// NewGuard wraps inner. dims 0 pins the dimensionality to the first vector seen.
func NewGuard(inner Provider, timeout time.Duration, dims int, logger *zap.Logger) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Guard{inner: inner, timeout: timeout, logger: logger}
	_, g.disabled = inner.(Disabled)
	g.dims.Store(int64(dims))
	return g
}

func (g *Guard) Name() string {
	return g.inner.Name()
}

// Dimensions returns the pinned vector size, 0 until known.
func (g *Guard) Dimensions() int {
	return int(g.dims.Load())
}

type embedResult struct {
	vec []float32
	err error
}

func (g *Guard) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrUnavailable)
	}
	if g.disabled {
		metrics.EmbeddingCalls.WithLabelValues(g.inner.Name(), "disabled").Inc()
		g.logger.Debug("embedding skipped, provider disabled")
		return nil, fmt.Errorf("%w: provider disabled", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.EmbeddingDuration.Observe(time.Since(start).Seconds()) }()

	ch := make(chan embedResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- embedResult{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		vec, err := g.inner.Embed(ctx, text)
		ch <- embedResult{vec: vec, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, g.unavailable("error", r.err)
		}
		if !g.acceptDims(len(r.vec)) {
			return nil, g.unavailable("dimension_mismatch",
				fmt.Errorf("got %d dimensions, want %d", len(r.vec), g.Dimensions()))
		}
		metrics.EmbeddingCalls.WithLabelValues(g.inner.Name(), "ok").Inc()
		return r.vec, nil
	case <-ctx.Done():
		return nil, g.unavailable("timeout", ctx.Err())
	}
}

func (g *Guard) acceptDims(n int) bool {
	if n == 0 {
		return false
	}
	if g.dims.CompareAndSwap(0, int64(n)) {
		return true
	}
	return g.dims.Load() == int64(n)
}

func (g *Guard) unavailable(result string, cause error) error {
	metrics.EmbeddingCalls.WithLabelValues(g.inner.Name(), result).Inc()
	g.logger.Warn("embedding unavailable",
		zap.String("provider", g.inner.Name()),
		zap.String("result", result),
		zap.Error(cause))
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, result, cause)
}

// Close releases the cache, if any.
func (g *Guard) Close() error {
	if g.closer != nil {
		return g.closer.Close()
	}
	return nil
}
