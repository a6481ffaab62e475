// Package embedding turns note text into vectors.
//
// Concrete providers talk to an Ollama server or any OpenAI compatible
// endpoint. Guard bounds every call with a timeout and converts all failures
// into ErrUnavailable, which callers treat as "no vector" rather than an error.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable is returned when no vector could be produced.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider converts text into a vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// Config 向量服务配置
type Config struct {
	// Provider is one of ollama, openai, none.
	Provider string `yaml:"provider" default:"ollama"`
	BaseURL  string `yaml:"base-url" default:"http://127.0.0.1:11434"`
	Model    string `yaml:"model" default:"nomic-embed-text"`
	APIKey   string `yaml:"api-key"`
	// Timeout bounds a single call, queueing included.
	Timeout time.Duration `yaml:"timeout" default:"3s"`
	// Dimensions pins the vector size; 0 adopts the size of the first vector.
	Dimensions int `yaml:"dimensions"`
	// CachePath enables the on-disk vector cache when set.
	CachePath string `yaml:"cache-path"`
}

// New builds the configured provider wrapped in a Guard (and a Cache when
// CachePath is set). The caller must Close the returned guard.
func New(cfg Config, logger *zap.Logger) (*Guard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var base Provider
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		base = NewOllama(cfg.BaseURL, cfg.Model, nil)
	case "openai":
		p, err := NewOpenAI(cfg.BaseURL, cfg.Model, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		base = p
	case "", "none":
		base = Disabled{}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	var cache *Cache
	_, disabled := base.(Disabled)
	if cfg.CachePath != "" && !disabled {
		c, err := OpenCache(base, cfg.Model, cfg.CachePath, false, logger)
		if err != nil {
			return nil, err
		}
		cache = c
		base = c
	}

	g := NewGuard(base, cfg.Timeout, cfg.Dimensions, logger)
	if cache != nil {
		g.closer = cache
	}
	logger.Info("embedding provider ready",
		zap.String("provider", base.Name()),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", g.timeout))
	return g, nil
}

// Disabled never produces vectors; search runs lexical only.
type Disabled struct{}

func (Disabled) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrUnavailable
}

func (Disabled) Name() string {
	return "none"
}
