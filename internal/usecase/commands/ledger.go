package commands

import (
	"context"
	"time"

	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/errs"
	"rental-settlement/internal/usecase/shared"
)

type LedgerCommands interface {
	// Prune deletes ledger rows older than the retention window.
	Prune(ctx context.Context) (int64, error)
}

type ledgerCommandsImpl struct {
	uow       shared.UnitOfWork
	clock     clock.Clock
	retention time.Duration
}

func NewLedgerCommands(uow shared.UnitOfWork, clock clock.Clock, retention time.Duration) LedgerCommands {
	return &ledgerCommandsImpl{
		uow:       uow,
		clock:     clock,
		retention: retention,
	}
}

func (l *ledgerCommandsImpl) Prune(ctx context.Context) (int64, error) {
	if l.retention <= 0 {
		return 0, nil
	}
	cutoff := l.clock.Now().Add(-l.retention)
	removed, err := shared.WithinResult(ctx, l.uow, func(ctx context.Context, tx shared.Tx) (int64, error) {
		return tx.WebhookEvents().PruneBefore(ctx, cutoff)
	})
	if err != nil {
		return 0, errs.Wrap(err, "failed to prune webhook ledger")
	}
	return removed, nil
}
