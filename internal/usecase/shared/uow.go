package shared

import (
	"context"
	"time"

	"rental-settlement/internal/domain/reservation"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// CommandReads: Plain reads for precondition checks outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Reservations() ReservationRepository
	WebhookEvents() WebhookEventRepository
	Reads() CommandReads
}

type CommandReads interface {
	// ReservationByID returns nil without error when the row does not exist.
	ReservationByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	IsProviderMember(ctx context.Context, providerID, userID uuid.UUID) (bool, error)
}

type ReservationRepository interface {
	// LockByID takes a row lock held until the transaction ends.
	// Returns nil without error when the row does not exist.
	LockByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	SetPaymentIntentID(ctx context.Context, id uuid.UUID, intentID string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status reservation.Status, paidAt *time.Time) error
	// HasOverlappingActive reports another non-cancelled reservation on the
	// same inventory item whose period overlaps res.
	HasOverlappingActive(ctx context.Context, res *reservation.Reservation) (bool, error)
}

type WebhookEventRepository interface {
	// TryInsert records the event unless its id is already present.
	TryInsert(ctx context.Context, ev WebhookEventRecord) (inserted bool, err error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
