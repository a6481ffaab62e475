package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, workers int) *Pool {
	t.Helper()
	p, err := New(&Config{MaxWorkers: workers, QueueSize: 100}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}

func TestSubmitReturnsTaskError(t *testing.T) {
	p := newTestPool(t, 2)
	want := errors.New("boom")

	err := p.Submit(context.Background(), func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestSubmitRecoversPanic(t *testing.T) {
	p := newTestPool(t, 1)

	err := p.Submit(context.Background(), func(context.Context) error { panic("bad") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	// the worker is still usable
	assert.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))
}

func TestSubmitCancelledContextSkipsTask(t *testing.T) {
	p := newTestPool(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	err := p.Submit(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	})
	assert.Error(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestShutdownWaitsForAsyncTasks(t *testing.T) {
	p, err := New(&Config{MaxWorkers: 4, QueueSize: 100}, nil)
	require.NoError(t, err)

	var n atomic.Int64
	for i := 0; i < 20; i++ {
		require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
			time.Sleep(5 * time.Millisecond)
			n.Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int64(20), n.Load())
	assert.True(t, p.IsClosed())
	assert.ErrorIs(t, p.SubmitAsync(context.Background(), func(context.Context) error { return nil }), ErrWorkerPoolClosed)
}
