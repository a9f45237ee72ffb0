package bootstrap

import (
	"context"
	"log/slog"

	"rental-settlement/internal/infra/db"
	"rental-settlement/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var DBModule = fx.Module("db",
	fx.Provide(
		NewDB,
	),
)

// NewDB connects eagerly so a bad DSN fails the boot instead of the first request.
func NewDB(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, cleanup, err := db.Connect(context.Background(), cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected",
		"host", cfg.DB.Host,
		"database", cfg.DB.DBName,
		"max_conns", pool.Config().MaxConns,
		"lock_timeout", cfg.DB.LockTimeout.String())

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			stat := pool.Stat()
			logger.Info("Closing database pool",
				"acquired_conns", stat.AcquiredConns(),
				"total_conns", stat.TotalConns())
			cleanup()
			return nil
		},
	})

	return pool, nil
}
