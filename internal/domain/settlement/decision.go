// Package settlement maps a processor notification and the current booking
// state to an outcome. It has no side effects; the caller applies the result.
package settlement

import (
	"net/http"

	"rental-settlement/internal/domain/reservation"
)

type EventType string

const (
	EventPaymentSucceeded EventType = "payment_intent.succeeded"
	EventPaymentFailed    EventType = "payment_intent.payment_failed"
)

type Outcome string

const (
	OutcomeReplay    Outcome = "replay"
	OutcomeNoop      Outcome = "noop"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeCancelled Outcome = "cancelled"
)

const (
	MsgReplay           = "Replay acknowledged"
	MsgAlreadyConfirmed = "Already confirmed"
	MsgConfirmed        = "Reservation confirmed"
	MsgConfirmedLate    = "Reservation confirmed after hold expiry"
	MsgSlotReassigned   = "Hold expired and slot was reassigned"
	MsgPaymentFailed    = "Reservation cancelled after payment failure"
	MsgNoAction         = "No action required"
	MsgMismatchedIntent = "Ignored mismatched intent"
)

type Input struct {
	EventType     EventType
	CurrentStatus reservation.Status
	Expired       bool
	HasConflict   bool
	IsReplay      bool
}

type Decision struct {
	ShouldUpdate bool
	NextStatus   reservation.Status
	HTTPStatus   int
	Message      string
	Outcome      Outcome
}

func Decide(in Input) Decision {
	if in.IsReplay {
		return noop(OutcomeReplay, MsgReplay)
	}

	switch in.EventType {
	case EventPaymentSucceeded:
		switch in.CurrentStatus {
		case reservation.StatusConfirmed:
			return noop(OutcomeNoop, MsgAlreadyConfirmed)
		case reservation.StatusHold:
			if !in.Expired {
				return update(reservation.StatusConfirmed, http.StatusOK, MsgConfirmed)
			}
			if in.HasConflict {
				return update(reservation.StatusCancelled, http.StatusConflict, MsgSlotReassigned)
			}
			return update(reservation.StatusConfirmed, http.StatusOK, MsgConfirmedLate)
		}
	case EventPaymentFailed:
		if in.CurrentStatus == reservation.StatusHold {
			return update(reservation.StatusCancelled, http.StatusOK, MsgPaymentFailed)
		}
	}

	return noop(OutcomeNoop, MsgNoAction)
}

// MismatchedIntent is returned when the booking already references another intent.
func MismatchedIntent() Decision {
	return noop(OutcomeIgnored, MsgMismatchedIntent)
}

func noop(outcome Outcome, msg string) Decision {
	return Decision{HTTPStatus: http.StatusOK, Message: msg, Outcome: outcome}
}

func update(next reservation.Status, status int, msg string) Decision {
	outcome := OutcomeConfirmed
	if next == reservation.StatusCancelled {
		outcome = OutcomeCancelled
	}
	return Decision{
		ShouldUpdate: true,
		NextStatus:   next,
		HTTPStatus:   status,
		Message:      msg,
		Outcome:      outcome,
	}
}
