package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/jaeger-client-go"
)

func TestNewJaegerTracer(t *testing.T) {
	tr, closer, err := NewJaegerTracer(Config{
		ServiceName:  "thingspace-notes-test",
		AgentHost:    "127.0.0.1:6831",
		SamplerType:  "const",
		SamplerParam: 1,
	}, nil)
	require.NoError(t, err)
	defer closer.Close()

	span := tr.StartSpan("op")
	sc, ok := span.Context().(jaeger.SpanContext)
	require.True(t, ok)
	assert.True(t, sc.IsSampled())
	assert.NotEmpty(t, sc.TraceID().String())
	span.Finish()
}

func TestNewJaegerTracer_RequiresServiceName(t *testing.T) {
	_, _, err := NewJaegerTracer(Config{SamplerType: "const", SamplerParam: 1}, nil)
	assert.Error(t, err)
}

func TestSetup_Disabled(t *testing.T) {
	closer, err := Setup(false, Config{}, nil)
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
}
