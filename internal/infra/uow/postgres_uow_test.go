//go:build unit

package uow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"rental-settlement/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx embeds pgx.Tx so only the methods the unit of work calls need bodies.
type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakePool struct {
	TxBeginner
	beginErr error
	txs      []*fakeTx
	commitFn func(attempt int) error
}

func (p *fakePool) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	tx := &fakeTx{}
	if p.commitFn != nil {
		tx.commitErr = p.commitFn(len(p.txs))
	}
	p.txs = append(p.txs, tx)
	return tx, nil
}

func newTestUoW(pool *fakePool) *PostgresUoW {
	u := NewPostgresUoW(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	u.base = time.Millisecond
	return u
}

func serializationFailure() error {
	return &pgconn.PgError{Code: pgErrCodeSerializationFailure}
}

func TestWithin(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		pool := &fakePool{}
		u := newTestUoW(pool)

		err := u.Within(ctx, func(context.Context, shared.Tx) error { return nil })

		require.NoError(t, err)
		require.Len(t, pool.txs, 1)
		assert.True(t, pool.txs[0].committed)
	})

	t.Run("rolls back and returns non retryable errors", func(t *testing.T) {
		pool := &fakePool{}
		u := newTestUoW(pool)
		boom := errors.New("boom")

		err := u.Within(ctx, func(context.Context, shared.Tx) error { return boom })

		assert.ErrorIs(t, err, boom)
		require.Len(t, pool.txs, 1)
		assert.True(t, pool.txs[0].rolledBack)
	})

	t.Run("retries serialization failures", func(t *testing.T) {
		pool := &fakePool{}
		u := newTestUoW(pool)
		calls := 0

		err := u.Within(ctx, func(context.Context, shared.Tx) error {
			calls++
			if calls < 3 {
				return serializationFailure()
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.True(t, pool.txs[2].committed)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		pool := &fakePool{}
		u := newTestUoW(pool)
		calls := 0

		err := u.Within(ctx, func(context.Context, shared.Tx) error {
			calls++
			return &pgconn.PgError{Code: pgErrCodeDeadlockDetected}
		})

		assert.ErrorIs(t, err, errMaxRetriesExceeded)
		assert.Equal(t, 4, calls)
	})

	t.Run("commit serialization failure is retried", func(t *testing.T) {
		pool := &fakePool{commitFn: func(attempt int) error {
			if attempt == 0 {
				return serializationFailure()
			}
			return nil
		}}
		u := newTestUoW(pool)

		err := u.Within(ctx, func(context.Context, shared.Tx) error { return nil })

		require.NoError(t, err)
		require.Len(t, pool.txs, 2)
		assert.True(t, pool.txs[1].committed)
	})

	t.Run("begin failure is marked", func(t *testing.T) {
		pool := &fakePool{beginErr: errors.New("pool closed")}
		u := newTestUoW(pool)

		err := u.Within(ctx, func(context.Context, shared.Tx) error { return nil })

		assert.ErrorIs(t, err, errTransactionBegin)
	})

	t.Run("repositories are created once per transaction", func(t *testing.T) {
		pool := &fakePool{}
		u := newTestUoW(pool)

		err := u.Within(ctx, func(_ context.Context, tx shared.Tx) error {
			assert.Same(t, tx.Reservations(), tx.Reservations())
			assert.Same(t, tx.WebhookEvents(), tx.WebhookEvents())
			return nil
		})
		require.NoError(t, err)
	})
}

func TestCalculateBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		floor := time.Duration(1<<attempt) * base
		got := calculateBackoff(attempt, base)
		assert.GreaterOrEqual(t, got, floor)
		assert.Less(t, got, floor+floor/5+1)
	}
}
