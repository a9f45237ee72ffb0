package bootstrap

import (
	"context"

	"rental-settlement/internal/handler/middleware"
	"rental-settlement/internal/infra/telemetry"
	"rental-settlement/internal/pkg/config"

	"go.uber.org/fx"
)

var TelemetryModule = fx.Module("telemetry",
	fx.Provide(
		NewErrorReporter,
	),
)

func NewErrorReporter(lc fx.Lifecycle, cfg config.Config) (middleware.ErrorReporter, error) {
	reporter, flush, err := telemetry.NewReporter(cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			flush()
			return nil
		},
	})

	return reporter, nil
}
