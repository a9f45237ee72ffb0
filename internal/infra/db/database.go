package db

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/errs"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories run
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ DBTX = (*pgxpool.Pool)(nil)
	_ DBTX = (pgx.Tx)(nil)
)

const (
	connectAttempts = 3
	connectInterval = 2 * time.Second
)

func PoolConfig(cfg config.DBConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.BuildDSN())
	if err != nil {
		return nil, errs.Wrap(err, "failed to parse database config")
	}

	// zero values keep the pgxpool defaults
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	// applied per session so a blocked row lock or runaway statement fails fast
	params := poolConfig.ConnConfig.RuntimeParams
	setMillis(params, "lock_timeout", cfg.LockTimeout)
	setMillis(params, "statement_timeout", cfg.StatementTimeout)
	setMillis(params, "idle_in_transaction_session_timeout", cfg.IdleInTransactionSessionTimeout)

	if cfg.EnableTracing {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer(otelpgx.WithIncludeQueryParameters())
	}

	return poolConfig, nil
}

func setMillis(params map[string]string, name string, d time.Duration) {
	if d <= 0 {
		return
	}
	params[name] = strconv.FormatInt(d.Milliseconds(), 10)
}

func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, func(), error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, nil, errs.Wrap(ctx.Err(), "database connect cancelled")
			case <-time.After(connectInterval):
			}
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			lastErr = err
			continue
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = err
			slog.Warn("database ping failed", "attempt", attempt, "error", err.Error())
			continue
		}

		cleanup := func() {
			pool.Close()
		}
		return pool, cleanup, nil
	}

	return nil, nil, errs.Wrapf(lastErr, "failed to connect to database after %d attempts", connectAttempts)
}
