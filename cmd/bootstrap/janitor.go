package bootstrap

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/ratelimit"
	"rental-settlement/internal/usecase/commands"

	"go.uber.org/fx"
)

var JanitorModule = fx.Module("janitor",
	fx.Invoke(StartJanitor),
)

// sweeper is implemented by limiters that hold expired buckets in memory.
type sweeper interface {
	Sweep(now time.Time) int
}

// StartJanitor runs limiter sweeps and ledger pruning until the app stops.
func StartJanitor(lc fx.Lifecycle, cfg config.Config, limiter ratelimit.Limiter, ledger commands.LedgerCommands, clk clock.Clock, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if s, ok := limiter.(sweeper); ok && cfg.RateLimit.SweepInterval > 0 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					every(ctx, cfg.RateLimit.SweepInterval, func() {
						if removed := s.Sweep(clk.Now()); removed > 0 {
							logger.Debug("rate limit buckets swept", "removed", removed)
						}
					})
				}()
			}

			if cfg.Ledger.Retention > 0 && cfg.Ledger.PruneInterval > 0 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					every(ctx, cfg.Ledger.PruneInterval, func() {
						pruned, err := ledger.Prune(ctx)
						if err != nil {
							logger.Error("webhook ledger prune failed", "error", err.Error())
							return
						}
						if pruned > 0 {
							logger.Info("webhook ledger pruned", "rows", pruned, "retention", cfg.Ledger.Retention.String())
						}
					})
				}()
			}
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
