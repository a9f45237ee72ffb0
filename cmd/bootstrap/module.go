package bootstrap

import (
	"rental-settlement/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	TracingModule,
	DBModule,
	JWTModule,
	TelemetryModule,
	components.UseCaseBaseModule,
	PaymentModule,
	RateLimitModule,
	components.PersistenceModule,
	components.UseCaseModule,
	components.HandlerModule,
	JanitorModule,
)
