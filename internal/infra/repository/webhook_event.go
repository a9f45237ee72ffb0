package repository

import (
	"context"
	"log/slog"
	"time"

	"rental-settlement/internal/infra"
	"rental-settlement/internal/infra/db"
	"rental-settlement/internal/usecase/shared"
)

const (
	insertWebhookEventSQL = `INSERT INTO payment_webhook_events
		(event_id, event_type, reservation_id, provider_id, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING`

	pruneWebhookEventsSQL = `DELETE FROM payment_webhook_events WHERE received_at < $1`
)

type WebhookEventRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewWebhookEventRepository(dbtx db.DBTX, logger *slog.Logger) *WebhookEventRepository {
	return &WebhookEventRepository{
		db:     dbtx,
		logger: logger,
	}
}

// TryInsert reports false when the event id is already recorded. A concurrent
// insert of the same id blocks until the other transaction ends.
func (r *WebhookEventRepository) TryInsert(ctx context.Context, ev shared.WebhookEventRecord) (bool, error) {
	tag, err := r.db.Exec(ctx, insertWebhookEventSQL,
		ev.EventID, ev.EventType, ev.ReservationID, ev.ProviderID, ev.ReceivedAt)
	if err != nil {
		return false, infra.WrapPgErr(r.logger, "failed to record webhook event", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *WebhookEventRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, pruneWebhookEventsSQL, cutoff)
	if err != nil {
		return 0, infra.WrapPgErr(r.logger, "failed to prune webhook events", err)
	}
	return tag.RowsAffected(), nil
}
