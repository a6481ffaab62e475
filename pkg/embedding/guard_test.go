package embedding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubProvider struct {
	fn    func(ctx context.Context, text string) ([]float32, error)
	calls atomic.Int32
}

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls.Add(1)
	return s.fn(ctx, text)
}

func (s *stubProvider) Name() string { return "stub" }

func TestGuard_PassesVectors(t *testing.T) {
	g := NewGuard(&stubProvider{fn: func(context.Context, string) ([]float32, error) {
		return []float32{1, 2, 3}, nil
	}}, time.Second, 0, nil)

	v, err := g.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, v)
	assert.Equal(t, 3, g.Dimensions())
}

func TestGuard_MapsFailuresToUnavailable(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, text string) ([]float32, error)
	}{
		{"error", func(context.Context, string) ([]float32, error) { return nil, errors.New("connection refused") }},
		{"panic", func(context.Context, string) ([]float32, error) { panic("bad provider") }},
		{"empty vector", func(context.Context, string) ([]float32, error) { return []float32{}, nil }},
		{"ignores context", func(context.Context, string) ([]float32, error) {
			time.Sleep(300 * time.Millisecond)
			return []float32{1}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(&stubProvider{fn: tt.fn}, 50*time.Millisecond, 0, nil)

			start := time.Now()
			_, err := g.Embed(context.Background(), "hello")
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Less(t, time.Since(start), 250*time.Millisecond)
		})
	}
}

func TestGuard_RejectsDimensionDrift(t *testing.T) {
	var n atomic.Int32
	g := NewGuard(&stubProvider{fn: func(context.Context, string) ([]float32, error) {
		if n.Add(1) == 1 {
			return []float32{1, 2}, nil
		}
		return []float32{1, 2, 3}, nil
	}}, time.Second, 0, nil)

	_, err := g.Embed(context.Background(), "a")
	require.NoError(t, err)
	_, err = g.Embed(context.Background(), "b")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGuard_EmptyTextSkipsProvider(t *testing.T) {
	p := &stubProvider{fn: func(context.Context, string) ([]float32, error) { return []float32{1}, nil }}
	g := NewGuard(p, time.Second, 0, nil)

	_, err := g.Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":[0.5,0.25]}`))
	}))
	defer srv.Close()

	v, err := NewOllama(srv.URL+"/", "nomic-embed-text", nil).Embed(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, v)
}

func TestOllama_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "missing", nil).Embed(context.Background(), "hi")
	assert.ErrorContains(t, err, "model not found")
}

func TestCache_MemoizesVectors(t *testing.T) {
	p := &stubProvider{fn: func(context.Context, string) ([]float32, error) { return []float32{1, 2}, nil }}
	c, err := OpenCache(p, "m", "", true, nil)
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 3; i++ {
		v, err := c.Embed(context.Background(), "same text")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2}, v)
	}
	assert.Equal(t, int32(1), p.calls.Load())

	_, err = c.Embed(context.Background(), "other text")
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestNew_Disabled(t *testing.T) {
	g, err := New(Config{Provider: "none"}, nil)
	require.NoError(t, err)
	defer g.Close()

	_, err = g.Embed(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = New(Config{Provider: "telepathy"}, nil)
	assert.Error(t, err)
}

func TestGuard_DisabledLogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	g, err := New(Config{Provider: "none", CachePath: t.TempDir()}, zap.New(core))
	require.NoError(t, err)
	defer g.Close()
	assert.Nil(t, g.closer)

	for i := 0; i < 3; i++ {
		_, err = g.Embed(context.Background(), "anything")
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 3, logs.FilterMessage("embedding skipped, provider disabled").Len())

	// real provider failures still warn
	core, logs = observer.New(zapcore.DebugLevel)
	p := &stubProvider{fn: func(context.Context, string) ([]float32, error) { return nil, errors.New("down") }}
	_, err = NewGuard(p, time.Second, 0, zap.New(core)).Embed(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}
