package embedding

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/thingspace/thingspace-notes/pkg/metrics"
	"github.com/thingspace/thingspace-notes/pkg/util"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"
)

const cacheTTL = 30 * 24 * time.Hour

// Cache memoizes vectors in badger, keyed by provider, model and text.
type Cache struct {
	inner  Provider
	model  string
	db     *badger.DB
	logger *zap.Logger
}

type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(msg string, args ...interface{})   { l.s.Errorf(msg, args...) }
func (l badgerLogger) Warningf(msg string, args ...interface{}) { l.s.Warnf(msg, args...) }
func (l badgerLogger) Infof(msg string, args ...interface{})    { l.s.Debugf(msg, args...) }
func (l badgerLogger) Debugf(msg string, args ...interface{})   { l.s.Debugf(msg, args...) }

// OpenCache opens (creating if needed) the cache at path. inMemory ignores path.
func OpenCache(inner Provider, model, path string, inMemory bool, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = badgerLogger{s: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: open: %w", err)
	}
	return &Cache{inner: inner, model: model, db: db, logger: logger}, nil
}

func (c *Cache) Name() string {
	return c.inner.Name()
}

func (c *Cache) key(text string) []byte {
	return []byte("emb/" + util.SHA256Hex(c.inner.Name(), c.model, text))
}

func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	var cached []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := Decode(val)
			cached = v
			return err
		})
	})
	if err == nil && len(cached) > 0 {
		metrics.EmbeddingCalls.WithLabelValues(c.inner.Name(), "cache_hit").Inc()
		return cached, nil
	}
	if err != nil && err != badger.ErrKeyNotFound {
		c.logger.Warn("embedding cache read failed", zap.Error(err))
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, Encode(vec)).WithTTL(cacheTTL))
	})
	if err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return vec, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
