//go:build unit || e2e

package builder

import (
	"time"

	"rental-settlement/internal/domain/reservation"
	reqdto "rental-settlement/internal/handler/dto/request"

	"github.com/google/uuid"
)

type ReservationBuilder struct {
	ID               uuid.UUID
	ProviderID       uuid.UUID
	InventoryItemID  uuid.UUID
	Status           reservation.Status
	StartAt          time.Time
	EndAt            time.Time
	ExpiresAt        *time.Time
	AmountTotalCents int64
	Currency         string
	PaymentIntentID  *string
	PaidAt           *time.Time
	CreatedAt        time.Time
}

// NewReservationBuilder returns an unpaid hold expiring 15 minutes after now.
func NewReservationBuilder(now time.Time) *ReservationBuilder {
	expires := now.Add(15 * time.Minute)
	start := now.Add(48 * time.Hour).Truncate(time.Hour)
	return &ReservationBuilder{
		ID:               uuid.New(),
		ProviderID:       uuid.New(),
		InventoryItemID:  uuid.New(),
		Status:           reservation.StatusHold,
		StartAt:          start,
		EndAt:            start.Add(24 * time.Hour),
		ExpiresAt:        &expires,
		AmountTotalCents: 12500,
		Currency:         "usd",
		CreatedAt:        now,
	}
}

func (r *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(r)
	return r
}

func (r *ReservationBuilder) WithStatus(status reservation.Status) *ReservationBuilder {
	r.Status = status
	return r
}

func (r *ReservationBuilder) WithExpiresAt(t time.Time) *ReservationBuilder {
	r.ExpiresAt = &t
	return r
}

func (r *ReservationBuilder) WithIntent(intentID string) *ReservationBuilder {
	r.PaymentIntentID = &intentID
	return r
}

// OverlappingOn copies the slot of other so both bookings compete for it.
func (r *ReservationBuilder) OverlappingOn(other *ReservationBuilder) *ReservationBuilder {
	r.ProviderID = other.ProviderID
	r.InventoryItemID = other.InventoryItemID
	r.StartAt = other.StartAt.Add(time.Hour)
	r.EndAt = other.EndAt.Add(time.Hour)
	return r
}

// Build methods
func (r *ReservationBuilder) BuildSnapshot() reservation.Snapshot {
	return reservation.Snapshot{
		ID:               r.ID,
		ProviderID:       r.ProviderID,
		InventoryItemID:  r.InventoryItemID,
		Status:           r.Status,
		StartAt:          r.StartAt,
		EndAt:            r.EndAt,
		ExpiresAt:        r.ExpiresAt,
		AmountTotalCents: r.AmountTotalCents,
		Currency:         r.Currency,
		PaymentIntentID:  r.PaymentIntentID,
		PaidAt:           r.PaidAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.CreatedAt,
	}
}

func (r *ReservationBuilder) BuildDomain() (*reservation.Reservation, error) {
	return reservation.Reconstruct(r.BuildSnapshot())
}

func (r *ReservationBuilder) BuildIntentRequestDTO() reqdto.CreatePaymentIntentRequest {
	return reqdto.CreatePaymentIntentRequest{ReservationID: r.ID}
}
