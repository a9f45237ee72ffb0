package commands

import (
	"context"
	"errors"

	"rental-settlement/internal/domain/reservation"
	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/errs"
	"rental-settlement/internal/usecase/shared"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrReservationNotFound = errs.New("reservation not found")
	ErrForbidden           = errs.New("caller is not allowed to act on this reservation")
	ErrReservationNotHold  = errs.New("reservation is not on hold")
	ErrHoldExpired         = errs.New("reservation hold has expired")
	ErrInvalidAmount       = errs.New("reservation amount is invalid")
	ErrPaymentGateway      = errs.New("payment processor request failed")
)

type IssueIntentResult struct {
	ReservationID   uuid.UUID
	PaymentIntentID string
	ClientSecret    string
	// Created is false when an existing intent was retrieved.
	Created bool
}

type PaymentIntentCommands interface {
	Issue(ctx context.Context, caller Caller, reservationID uuid.UUID) (*IssueIntentResult, error)
}

type paymentIntentCommandsImpl struct {
	uow     shared.UnitOfWork
	gateway PaymentGateway
	clock   clock.Clock
}

func NewPaymentIntentCommands(uow shared.UnitOfWork, gateway PaymentGateway, clock clock.Clock) PaymentIntentCommands {
	return &paymentIntentCommandsImpl{
		uow:     uow,
		gateway: gateway,
		clock:   clock,
	}
}

// IntentIdempotencyKey is sent with every create so that a retried
// transaction can never produce a second processor object.
func IntentIdempotencyKey(reservationID uuid.UUID) string {
	return "reservation-intent:" + reservationID.String()
}

func (p *paymentIntentCommandsImpl) Issue(ctx context.Context, caller Caller, reservationID uuid.UUID) (*IssueIntentResult, error) {
	ctx, span := tracer.Start(ctx, "PaymentIntentCommands.Issue",
		trace.WithAttributes(attribute.String("reservation.id", reservationID.String())))
	defer span.End()

	// Preflight on a plain read so obviously invalid requests never take a lock.
	res, err := p.uow.CommandReads().ReservationByID(ctx, reservationID)
	if err != nil {
		return nil, recordSpanError(span, errs.Wrap(err, "failed to load reservation"))
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}
	if err := authorize(ctx, p.uow.CommandReads(), caller, res); err != nil {
		return nil, err
	}
	if err := checkPayable(res, p.clock); err != nil {
		return nil, err
	}

	result, err := shared.WithinResult(ctx, p.uow, func(ctx context.Context, tx shared.Tx) (*IssueIntentResult, error) {
		locked, err := tx.Reservations().LockByID(ctx, reservationID)
		if err != nil {
			return nil, errs.Wrap(err, "failed to lock reservation")
		}
		if locked == nil {
			return nil, ErrReservationNotFound
		}
		// state and membership may have changed between the preflight read and the lock
		if err := authorize(ctx, tx.Reads(), caller, locked); err != nil {
			return nil, err
		}
		if err := checkPayable(locked, p.clock); err != nil {
			return nil, err
		}

		if intentID, ok := locked.PaymentIntentID(); ok {
			intent, err := p.gateway.RetrieveIntent(ctx, intentID)
			if err != nil {
				return nil, errs.Mark(errs.Wrap(err, "retrieve payment intent"), ErrPaymentGateway)
			}
			return &IssueIntentResult{
				ReservationID:   reservationID,
				PaymentIntentID: intent.ID,
				ClientSecret:    intent.ClientSecret,
			}, nil
		}

		intent, err := p.gateway.CreateIntent(ctx, CreateIntentRequest{
			ReservationID:  locked.ID(),
			ProviderID:     locked.ProviderID(),
			AmountCents:    locked.AmountTotalCents(),
			Currency:       locked.Currency(),
			IdempotencyKey: IntentIdempotencyKey(locked.ID()),
		})
		if err != nil {
			return nil, errs.Mark(errs.Wrap(err, "create payment intent"), ErrPaymentGateway)
		}

		if err := tx.Reservations().SetPaymentIntentID(ctx, locked.ID(), intent.ID); err != nil {
			return nil, errs.Wrap(err, "failed to persist payment intent id")
		}

		return &IssueIntentResult{
			ReservationID:   reservationID,
			PaymentIntentID: intent.ID,
			ClientSecret:    intent.ClientSecret,
			Created:         true,
		}, nil
	})
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	span.SetAttributes(
		attribute.String("payment_intent.id", result.PaymentIntentID),
		attribute.Bool("payment_intent.created", result.Created),
	)
	return result, nil
}

func authorize(ctx context.Context, reads shared.CommandReads, caller Caller, res *reservation.Reservation) error {
	if caller.Role.IsPlatformAdmin() {
		return nil
	}
	member, err := reads.IsProviderMember(ctx, res.ProviderID(), caller.UserID)
	if err != nil {
		return errs.Wrap(err, "failed to check provider membership")
	}
	if !member {
		return ErrForbidden
	}
	return nil
}

func checkPayable(res *reservation.Reservation, clk clock.Clock) error {
	err := res.CheckPayable(clk.Now())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, reservation.ErrNotHold):
		return errs.Mark(err, ErrReservationNotHold)
	case errors.Is(err, reservation.ErrHoldExpired):
		return errs.Mark(err, ErrHoldExpired)
	case errors.Is(err, reservation.ErrInvalidAmount):
		return errs.Mark(err, ErrInvalidAmount)
	default:
		return err
	}
}
