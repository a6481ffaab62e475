// Package tracer bootstraps the jaeger backed opentracing tracer.
package tracer

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"go.uber.org/zap"
)

// Config 链路追踪配置
type Config struct {
	ServiceName  string
	AgentHost    string
	SamplerType  string
	SamplerParam float64
}

type jaegerLogger struct {
	l *zap.SugaredLogger
}

func (j jaegerLogger) Error(msg string) {
	j.l.Error(msg)
}

func (j jaegerLogger) Infof(msg string, args ...interface{}) {
	j.l.Debugf(msg, args...)
}

// NewJaegerTracer creates a tracer reporting to the jaeger agent over UDP.
// The caller closes the returned closer to flush buffered spans.
func NewJaegerTracer(cfg Config, logger *zap.Logger) (opentracing.Tracer, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	jc := jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  cfg.SamplerType,
			Param: cfg.SamplerParam,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: cfg.AgentHost,
		},
	}
	t, closer, err := jc.NewTracer(jaegercfg.Logger(jaegerLogger{l: logger.Sugar()}))
	if err != nil {
		return nil, nil, errors.Wrap(err, "create jaeger tracer")
	}
	return t, closer, nil
}

// Setup installs the jaeger tracer as the global tracer. When disabled the
// no-op tracer stays in place and the returned closer does nothing.
func Setup(enabled bool, cfg Config, logger *zap.Logger) (io.Closer, error) {
	if !enabled {
		return io.NopCloser(nil), nil
	}
	t, closer, err := NewJaegerTracer(cfg, logger)
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(t)
	return closer, nil
}
