package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RateLimitModule = fx.Module("ratelimit",
	fx.Provide(
		NewLimiter,
	),
)

// NewLimiter uses the shared Redis store when an address is configured and
// falls back to process memory otherwise.
func NewLimiter(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) ratelimit.Limiter {
	rl := cfg.RateLimit
	if rl.RedisAddr == "" {
		logger.Info("rate limiter using process memory")
		return ratelimit.NewMemoryLimiter(clk)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     rl.RedisAddr,
		Password: rl.RedisPassword,
		DB:       rl.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			// the limiter fails open, so an unreachable Redis is not fatal
			if err := client.Ping(pingCtx).Err(); err != nil {
				logger.Warn("rate limiter redis unreachable", "addr", rl.RedisAddr, "error", err.Error())
				return nil
			}
			logger.Info("rate limiter using redis", "addr", rl.RedisAddr)
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return ratelimit.NewRedisLimiter(client, rl.KeyPrefix)
}
