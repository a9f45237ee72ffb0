package repository

import (
	"context"
	"log/slog"
	"time"

	"rental-settlement/internal/domain/reservation"
	"rental-settlement/internal/infra"
	"rental-settlement/internal/infra/db"
	"rental-settlement/internal/infra/repository/converter"
	"rental-settlement/internal/pkg/pgconv"

	"github.com/google/uuid"
)

const (
	lockReservationSQL = `SELECT ` + converter.ReservationColumns + `
		FROM reservations WHERE id = $1 FOR UPDATE`

	// only fills an empty column or rewrites the same value
	setPaymentIntentSQL = `UPDATE reservations
		SET payment_intent_id = $2, updated_at = now()
		WHERE id = $1 AND (payment_intent_id IS NULL OR payment_intent_id = $2)`

	updateStatusSQL = `UPDATE reservations
		SET status = $2, paid_at = COALESCE(paid_at, $3), updated_at = now()
		WHERE id = $1`

	overlappingActiveSQL = `SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE inventory_item_id = $2
		  AND id <> $1
		  AND status <> 'cancelled'
		  AND tstzrange(start_at, end_at, '[)') && tstzrange($3, $4, '[)')
	)`
)

type ReservationRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewReservationRepository(dbtx db.DBTX, logger *slog.Logger) *ReservationRepository {
	return &ReservationRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *ReservationRepository) LockByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	var row converter.ReservationRow
	err := r.db.QueryRow(ctx, lockReservationSQL, id).Scan(row.ScanTargets()...)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapPgErr(r.logger, "failed to lock reservation", err)
	}

	res, err := converter.ReservationToDomain(row)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored reservation is invalid", err)
	}
	return res, nil
}

func (r *ReservationRepository) SetPaymentIntentID(ctx context.Context, id uuid.UUID, intentID string) error {
	tag, err := r.db.Exec(ctx, setPaymentIntentSQL, id, intentID)
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to set payment intent id", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindConflict, "reservation missing or bound to another payment intent", nil)
	}
	return nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status reservation.Status, paidAt *time.Time) error {
	tag, err := r.db.Exec(ctx, updateStatusSQL, id, status.String(), pgconv.TimePtrToPgtype(paidAt))
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to update reservation status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "reservation not found", nil)
	}
	return nil
}

func (r *ReservationRepository) HasOverlappingActive(ctx context.Context, res *reservation.Reservation) (bool, error) {
	period := res.Period()
	var exists bool
	err := r.db.QueryRow(ctx, overlappingActiveSQL,
		res.ID(), res.InventoryItemID(), period.Start(), period.End(),
	).Scan(&exists)
	if err != nil {
		return false, infra.WrapPgErr(r.logger, "failed to check overlapping reservations", err)
	}
	return exists, nil
}
