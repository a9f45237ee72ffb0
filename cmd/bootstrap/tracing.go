package bootstrap

import (
	"context"
	"log/slog"

	"rental-settlement/internal/infra/telemetry"
	"rental-settlement/internal/pkg/config"

	"go.uber.org/fx"
)

var TracingModule = fx.Module("tracing",
	fx.Invoke(StartTracing),
)

// StartTracing installs the OTLP provider when enabled and flushes it on stop.
// Disabled tracing leaves the global no-op provider in place.
func StartTracing(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) error {
	if !cfg.Tracing.Enabled {
		logger.Info("Tracing disabled")
		return nil
	}

	tp, err := telemetry.NewOTLPTracerProvider(context.Background(), cfg.Tracing, cfg.Telemetry)
	if err != nil {
		return err
	}
	telemetry.InstallTracerProvider(tp)
	logger.Info("Tracing enabled",
		"collector", cfg.Tracing.CollectorAddr,
		"sample_ratio", cfg.Tracing.SampleRatio)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return nil
}
