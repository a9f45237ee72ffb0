//go:build unit

package telemetry_test

import (
	"context"
	"testing"

	"rental-settlement/internal/infra/telemetry"
	"rental-settlement/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func TestTracerProvider(t *testing.T) {
	cfg := config.NewTestConfig()
	recorder := tracetest.NewSpanRecorder()

	tp, err := telemetry.NewTracerProvider(cfg.Tracing, cfg.Telemetry, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	telemetry.InstallTracerProvider(tp)

	_, span := otel.Tracer("test").Start(context.Background(), "reconcile")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "reconcile", ended[0].Name())

	attrs := ended[0].Resource().Set()
	name, ok := attrs.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "rental-settlement-test", name.AsString())
}

func TestTracerProviderClampsSampleRatio(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Tracing.SampleRatio = 0
	recorder := tracetest.NewSpanRecorder()

	tp, err := telemetry.NewTracerProvider(cfg.Tracing, cfg.Telemetry, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "issue")
	span.End()
	assert.Len(t, recorder.Ended(), 1)
}
