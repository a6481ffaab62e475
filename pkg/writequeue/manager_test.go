package writequeue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_SerializesSameKey(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Execute(context.Background(), "note-1", func() error {
				n := inFlight.Add(1)
				for {
					cur := maxInFlight.Load()
					if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestExecute_DifferentKeysRunInParallel(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var wg sync.WaitGroup
	for _, key := range []string{"a", "b"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_ = m.Execute(context.Background(), key, func() error {
				started <- struct{}{}
				<-release
				return nil
			})
		}(key)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("operations on different keys did not run concurrently")
		}
	}
	close(release)
	wg.Wait()
	assert.Equal(t, 2, m.QueueCount())
}

func TestExecute_ReturnsOperationError(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	boom := assert.AnError
	assert.ErrorIs(t, m.Execute(context.Background(), "k", func() error { return boom }), boom)
}

func TestExecute_TimeoutSkipsLateOperation(t *testing.T) {
	m := New(&Config{WriteTimeout: 50 * time.Millisecond}, nil)
	defer m.Shutdown(context.Background())

	block := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "k", func() error {
			<-block
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	var ran atomic.Bool
	err := m.Execute(context.Background(), "k", func() error {
		ran.Store(true)
		return nil
	})
	assert.ErrorIs(t, err, ErrWriteTimeout)

	close(block)
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestExecute_RecoversPanic(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	err := m.Execute(context.Background(), "k", func() error { panic("boom") })
	require.Error(t, err)
	assert.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
}

func TestIdleQueuesAreReclaimed(t *testing.T) {
	m := New(&Config{IdleTimeout: 20 * time.Millisecond}, nil)
	defer m.Shutdown(context.Background())

	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
	assert.Eventually(t, func() bool { return m.QueueCount() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
}

func TestShutdown(t *testing.T) {
	m := New(nil, nil)
	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
	require.NoError(t, m.Shutdown(context.Background()))

	assert.True(t, m.IsClosed())
	assert.ErrorIs(t, m.Execute(context.Background(), "k", func() error { return nil }), ErrWriteQueueClosed)
}
