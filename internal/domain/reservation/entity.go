package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus = errors.New("invalid reservation status")
	ErrInvalidPeriod = errors.New("invalid reservation period")
	ErrNotHold       = errors.New("reservation is not on hold")
	ErrHoldExpired   = errors.New("reservation hold has expired")
	ErrInvalidAmount = errors.New("reservation amount must be positive")
)

// Snapshot is the persisted shape of a reservation.
type Snapshot struct {
	ID               uuid.UUID
	ProviderID       uuid.UUID
	InventoryItemID  uuid.UUID
	VariantID        *uuid.UUID
	Status           Status
	StartAt          time.Time
	EndAt            time.Time
	ExpiresAt        *time.Time
	AmountTotalCents int64
	Currency         string
	PaymentIntentID  *string
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Reservation is a booking of one inventory item for a period. Holds are
// created elsewhere; settlement only moves hold to confirmed or cancelled.
type Reservation struct {
	id               uuid.UUID
	providerID       uuid.UUID
	inventoryItemID  uuid.UUID
	variantID        *uuid.UUID
	status           Status
	period           Period
	expiresAt        *time.Time
	amountTotalCents int64
	currency         string
	paymentIntentID  *string
	paidAt           *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

func Reconstruct(s Snapshot) (*Reservation, error) {
	if !s.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	period, err := NewPeriod(s.StartAt, s.EndAt)
	if err != nil {
		return nil, err
	}
	return &Reservation{
		id:               s.ID,
		providerID:       s.ProviderID,
		inventoryItemID:  s.InventoryItemID,
		variantID:        s.VariantID,
		status:           s.Status,
		period:           period,
		expiresAt:        s.ExpiresAt,
		amountTotalCents: s.AmountTotalCents,
		currency:         s.Currency,
		paymentIntentID:  s.PaymentIntentID,
		paidAt:           s.PaidAt,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
	}, nil
}

func (r *Reservation) Snapshot() Snapshot {
	return Snapshot{
		ID:               r.id,
		ProviderID:       r.providerID,
		InventoryItemID:  r.inventoryItemID,
		VariantID:        r.variantID,
		Status:           r.status,
		StartAt:          r.period.start,
		EndAt:            r.period.end,
		ExpiresAt:        r.expiresAt,
		AmountTotalCents: r.amountTotalCents,
		Currency:         r.currency,
		PaymentIntentID:  r.paymentIntentID,
		PaidAt:           r.paidAt,
		CreatedAt:        r.createdAt,
		UpdatedAt:        r.updatedAt,
	}
}

func (r *Reservation) ID() uuid.UUID              { return r.id }
func (r *Reservation) ProviderID() uuid.UUID      { return r.providerID }
func (r *Reservation) InventoryItemID() uuid.UUID { return r.inventoryItemID }
func (r *Reservation) Status() Status             { return r.status }
func (r *Reservation) Period() Period             { return r.period }
func (r *Reservation) ExpiresAt() *time.Time      { return r.expiresAt }
func (r *Reservation) AmountTotalCents() int64    { return r.amountTotalCents }
func (r *Reservation) Currency() string           { return r.currency }
func (r *Reservation) PaidAt() *time.Time         { return r.paidAt }

func (r *Reservation) PaymentIntentID() (string, bool) {
	if r.paymentIntentID == nil || *r.paymentIntentID == "" {
		return "", false
	}
	return *r.paymentIntentID, true
}

// IsExpired is true once now reaches expires_at. A hold without expiry never expires.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.expiresAt != nil && !r.expiresAt.After(now)
}

// CheckPayable validates that a payment intent may be issued at now.
func (r *Reservation) CheckPayable(now time.Time) error {
	if r.status != StatusHold {
		return ErrNotHold
	}
	if r.IsExpired(now) {
		return ErrHoldExpired
	}
	if r.amountTotalCents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// PaidAtOnConfirm keeps an existing paid_at and otherwise stamps now.
func (r *Reservation) PaidAtOnConfirm(now time.Time) time.Time {
	if r.paidAt != nil {
		return *r.paidAt
	}
	return now
}

func (r *Reservation) ConflictsWith(other *Reservation) bool {
	return other.id != r.id &&
		other.inventoryItemID == r.inventoryItemID &&
		other.status.HoldsSlot() &&
		r.period.Overlaps(other.period)
}
