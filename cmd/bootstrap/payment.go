package bootstrap

import (
	"log/slog"

	"rental-settlement/internal/infra/gateway"
	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/signature"
	"rental-settlement/internal/usecase/commands"

	"go.uber.org/fx"
)

var PaymentModule = fx.Module("payment",
	fx.Provide(
		fx.Annotate(
			NewPaymentGateway,
			fx.As(new(commands.PaymentGateway)),
		),
		func(cfg config.Config) config.WebhookConfig { return cfg.Webhook },
		NewSignatureVerifier,
	),
)

func NewPaymentGateway(cfg config.Config, logger *slog.Logger) (*gateway.StripeGateway, error) {
	return gateway.NewStripeGateway(cfg.Payment, logger)
}

func NewSignatureVerifier(cfg config.WebhookConfig, clk clock.Clock) *signature.Verifier {
	return signature.NewVerifier(cfg.Secret, cfg.Tolerance, clk)
}
