package observability

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()

	assert.Equal(t, "shaderinc", cfg.ServiceName)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()

	tp, err := InitTracing(ctx, &TracingConfig{ServiceName: "test"})

	require.NoError(t, err)
	assert.False(t, tp.Enabled())
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestInitTracing_NilConfig(t *testing.T) {
	tp, err := InitTracing(context.Background(), nil)

	require.NoError(t, err)
	assert.False(t, tp.Enabled())
}

func TestSampler(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{"always", 1.0, "AlwaysOnSampler"},
		{"above one", 3, "AlwaysOnSampler"},
		{"never", 0, "AlwaysOffSampler"},
		{"negative", -1, "AlwaysOffSampler"},
		{"ratio", 0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(Sampler(tt.rate).Description(), "ParentBased{root:"+tt.want+","))
		})
	}
}

func TestNewProvider_RecordsSpansWithServiceName(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := newProvider(&TracingConfig{SampleRate: 1}, sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, span := provider.Tracer(TracerName).Start(context.Background(), "probe")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "probe", spans[0].Name())

	var serviceName string
	for _, kv := range spans[0].Resource().Attributes() {
		if kv.Key == "service.name" {
			serviceName = kv.Value.AsString()
		}
	}
	assert.Equal(t, "shaderinc", serviceName)
}

func TestStartCommandSpan(t *testing.T) {
	ctx, span := StartCommandSpan(context.Background(), "expand", "main.glsl")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}
