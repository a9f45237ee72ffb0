package shared

import (
	"context"
)

// WithinResult runs fn in a transaction and returns its value only after commit.
// fn may run more than once when the transaction is retried.
func WithinResult[T any](ctx context.Context, uow UnitOfWork, fn func(ctx context.Context, tx Tx) (T, error)) (T, error) {
	var (
		zero   T
		result T
	)
	err := uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return zero, err
	}
	return result, nil
}
