package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitOTel_Disabled(t *testing.T) {
	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, NewNopLogger())

	require.NoError(t, err)
	assert.Nil(t, providers)
	assert.NoError(t, ShutdownOTel(context.Background(), providers, NewNopLogger()))
}

func TestShutdownOTel_LocalProviders(t *testing.T) {
	providers := &OTelProviders{
		TracerProvider: sdktrace.NewTracerProvider(),
		MeterProvider:  sdkmetric.NewMeterProvider(),
	}

	assert.NoError(t, ShutdownOTel(context.Background(), providers, NewNopLogger()))
}

func TestLoggerWithTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("no span", func(t *testing.T) {
		assert.Same(t, logger, LoggerWithTraceContext(context.Background(), logger))
	})

	t.Run("active span", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		ctx, span := tp.Tracer("test").Start(context.Background(), "lint")
		defer span.End()

		buf.Reset()
		LoggerWithTraceContext(ctx, logger).Info("traced")

		entry := decode(t, &buf)
		assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
	})
}

func TestOTelMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(ctx) }()

	m, err := NewOTelMetricsWithMeter(mp.Meter("test"))
	require.NoError(t, err)

	m.ObserveFile(ctx, "ok", 12, 2*time.Millisecond)
	m.ObserveViolation(ctx, "valid-constant-name", "ClassConstantNotUpperCase", "error")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := make(map[string]bool)
	for _, md := range rm.ScopeMetrics[0].Metrics {
		names[md.Name] = true
	}
	assert.True(t, names["phpsniff.files.linted"])
	assert.True(t, names["phpsniff.tokens"])
	assert.True(t, names["phpsniff.violations"])
	assert.True(t, names["phpsniff.lint.duration"])
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(0).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased{0.5}")
}
