package components

import (
	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/usecase"
	"rental-settlement/internal/usecase/commands"
	"rental-settlement/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseBaseModule = fx.Module("usecase/base",
	fx.Provide(
		clock.NewRealClock,
	),
)

var UseCaseModule = fx.Module("usecase",
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewPaymentIntentCommands,
		commands.NewWebhookCommands,
		NewLedgerCommands,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

func NewLedgerCommands(uow shared.UnitOfWork, clk clock.Clock, cfg config.Config) commands.LedgerCommands {
	return commands.NewLedgerCommands(uow, clk, cfg.Ledger.Retention)
}
