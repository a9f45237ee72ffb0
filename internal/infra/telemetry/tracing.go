package telemetry

import (
	"context"

	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/errs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// NewOTLPTracerProvider exports spans to an OTLP/gRPC collector. The exporter
// connects lazily, so an unreachable collector does not block startup.
func NewOTLPTracerProvider(ctx context.Context, cfg config.TracingConfig, tel config.TelemetryConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorAddr)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "create OTLP trace exporter")
	}
	return NewTracerProvider(cfg, tel, sdktrace.WithBatcher(exporter))
}

// NewTracerProvider builds a provider tagged with the service identity.
// Span processors or exporters come in through opts.
func NewTracerProvider(cfg config.TracingConfig, tel config.TelemetryConfig, opts ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	res, err := resource.Merge(
		resource.Default(),
		// schemaless so the merge never conflicts with the SDK's own schema version
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(tel.Release),
			attribute.String("environment", tel.Environment),
		),
	)
	if err != nil {
		return nil, errs.Wrap(err, "build trace resource")
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}, opts...)
	return sdktrace.NewTracerProvider(opts...), nil
}

// InstallTracerProvider makes tp the global provider. Tracers obtained from
// otel.Tracer before this call start recording too.
func InstallTracerProvider(tp *sdktrace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}
