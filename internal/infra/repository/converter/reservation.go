package converter

import (
	"time"

	"rental-settlement/internal/domain/reservation"
	"rental-settlement/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReservationColumns is the select list matching ReservationRow.ScanTargets.
const ReservationColumns = `id, provider_id, inventory_item_id, variant_id, status,
	start_at, end_at, expires_at, amount_total_cents, currency,
	payment_intent_id, paid_at, created_at, updated_at`

type ReservationRow struct {
	ID               uuid.UUID
	ProviderID       uuid.UUID
	InventoryItemID  uuid.UUID
	VariantID        pgtype.UUID
	Status           string
	StartAt          time.Time
	EndAt            time.Time
	ExpiresAt        pgtype.Timestamptz
	AmountTotalCents int64
	Currency         string
	PaymentIntentID  pgtype.Text
	PaidAt           pgtype.Timestamptz
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r *ReservationRow) ScanTargets() []any {
	return []any{
		&r.ID, &r.ProviderID, &r.InventoryItemID, &r.VariantID, &r.Status,
		&r.StartAt, &r.EndAt, &r.ExpiresAt, &r.AmountTotalCents, &r.Currency,
		&r.PaymentIntentID, &r.PaidAt, &r.CreatedAt, &r.UpdatedAt,
	}
}

func ReservationToDomain(row ReservationRow) (*reservation.Reservation, error) {
	status, err := reservation.NewStatus(row.Status)
	if err != nil {
		return nil, err
	}
	return reservation.Reconstruct(reservation.Snapshot{
		ID:               row.ID,
		ProviderID:       row.ProviderID,
		InventoryItemID:  row.InventoryItemID,
		VariantID:        pgconv.UUIDPtrFromPgtype(row.VariantID),
		Status:           status,
		StartAt:          row.StartAt,
		EndAt:            row.EndAt,
		ExpiresAt:        pgconv.TimePtrFromPgtype(row.ExpiresAt),
		AmountTotalCents: row.AmountTotalCents,
		Currency:         row.Currency,
		PaymentIntentID:  pgconv.StringPtrFromPgtype(row.PaymentIntentID),
		PaidAt:           pgconv.TimePtrFromPgtype(row.PaidAt),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	})
}

// ReservationToRow is the inverse of ReservationToDomain, used by fixtures.
func ReservationToRow(res *reservation.Reservation) ReservationRow {
	s := res.Snapshot()
	return ReservationRow{
		ID:               s.ID,
		ProviderID:       s.ProviderID,
		InventoryItemID:  s.InventoryItemID,
		VariantID:        pgconv.UUIDPtrToPgtype(s.VariantID),
		Status:           s.Status.String(),
		StartAt:          s.StartAt,
		EndAt:            s.EndAt,
		ExpiresAt:        pgconv.TimePtrToPgtype(s.ExpiresAt),
		AmountTotalCents: s.AmountTotalCents,
		Currency:         s.Currency,
		PaymentIntentID:  pgconv.StringPtrToPgtype(s.PaymentIntentID),
		PaidAt:           pgconv.TimePtrToPgtype(s.PaidAt),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
