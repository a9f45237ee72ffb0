package bootstrap

import (
	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/errs"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		NewConfig,
	),
)

// NewConfig loads and validates the environment once at startup; fx aborts boot on error.
func NewConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, errs.Wrap(err, "load configuration")
	}
	return cfg, nil
}
