//go:build unit

package settlement_test

import (
	"net/http"
	"testing"

	"rental-settlement/internal/domain/reservation"
	"rental-settlement/internal/domain/settlement"

	"github.com/google/go-cmp/cmp"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name string
		in   settlement.Input
		want settlement.Decision
	}{
		{
			name: "replay short-circuits regardless of state",
			in:   settlement.Input{EventType: settlement.EventPaymentSucceeded, CurrentStatus: reservation.StatusHold, IsReplay: true},
			want: settlement.Decision{HTTPStatus: http.StatusOK, Message: settlement.MsgReplay, Outcome: settlement.OutcomeReplay},
		},
		{
			name: "succeeded on confirmed is a no-op",
			in:   settlement.Input{EventType: settlement.EventPaymentSucceeded, CurrentStatus: reservation.StatusConfirmed},
			want: settlement.Decision{HTTPStatus: http.StatusOK, Message: settlement.MsgAlreadyConfirmed, Outcome: settlement.OutcomeNoop},
		},
		{
			name: "succeeded on live hold confirms",
			in:   settlement.Input{EventType: settlement.EventPaymentSucceeded, CurrentStatus: reservation.StatusHold},
			want: settlement.Decision{ShouldUpdate: true, NextStatus: reservation.StatusConfirmed, HTTPStatus: http.StatusOK, Message: settlement.MsgConfirmed, Outcome: settlement.OutcomeConfirmed},
		},
		{
			name: "succeeded on live hold ignores conflict flag",
			in:   settlement.Input{EventType: settlement.EventPaymentSucceeded, CurrentStatus: reservation.StatusHold, HasConflict: true},
			want: settlement.Decision{ShouldUpdate: true, NextStatus: reservation.StatusConfirmed, HTTPStatus: http.StatusOK, Message: settlement.MsgConfirmed, Outcome: settlement.OutcomeConfirmed},
		},
		{
			name: "late success without conflict confirms",
			in:   settlement.Input{EventType: settlement.EventPaymentSucceeded, CurrentStatus: reservation.StatusHold, Expired: true},
			want: settlement.Decision{ShouldUpdate: true, NextStatus: reservation.StatusConfirmed, HTTPStatus: http.StatusOK, Message: settlement.MsgConfirmedLate, Outcome: settlement.OutcomeConfirmed},
		},
		{
			name: "late success with conflict cancels with 409",
			in:   settlement.Input{EventType: settlement.EventPaymentSucceeded, CurrentStatus: reservation.StatusHold, Expired: true, HasConflict: true},
			want: settlement.Decision{ShouldUpdate: true, NextStatus: reservation.StatusCancelled, HTTPStatus: http.StatusConflict, Message: settlement.MsgSlotReassigned, Outcome: settlement.OutcomeCancelled},
		},
		{
			name: "payment failed on hold cancels",
			in:   settlement.Input{EventType: settlement.EventPaymentFailed, CurrentStatus: reservation.StatusHold},
			want: settlement.Decision{ShouldUpdate: true, NextStatus: reservation.StatusCancelled, HTTPStatus: http.StatusOK, Message: settlement.MsgPaymentFailed, Outcome: settlement.OutcomeCancelled},
		},
		{
			name: "payment failed on expired hold still cancels",
			in:   settlement.Input{EventType: settlement.EventPaymentFailed, CurrentStatus: reservation.StatusHold, Expired: true},
			want: settlement.Decision{ShouldUpdate: true, NextStatus: reservation.StatusCancelled, HTTPStatus: http.StatusOK, Message: settlement.MsgPaymentFailed, Outcome: settlement.OutcomeCancelled},
		},
		{
			name: "payment failed after confirmation is ignored",
			in:   settlement.Input{EventType: settlement.EventPaymentFailed, CurrentStatus: reservation.StatusConfirmed},
			want: settlement.Decision{HTTPStatus: http.StatusOK, Message: settlement.MsgNoAction, Outcome: settlement.OutcomeNoop},
		},
		{
			name: "succeeded on cancelled is ignored",
			in:   settlement.Input{EventType: settlement.EventPaymentSucceeded, CurrentStatus: reservation.StatusCancelled, Expired: true},
			want: settlement.Decision{HTTPStatus: http.StatusOK, Message: settlement.MsgNoAction, Outcome: settlement.OutcomeNoop},
		},
		{
			name: "succeeded on active is ignored",
			in:   settlement.Input{EventType: settlement.EventPaymentSucceeded, CurrentStatus: reservation.StatusActive},
			want: settlement.Decision{HTTPStatus: http.StatusOK, Message: settlement.MsgNoAction, Outcome: settlement.OutcomeNoop},
		},
		{
			name: "unrelated event type is ignored",
			in:   settlement.Input{EventType: "payment_intent.canceled", CurrentStatus: reservation.StatusHold},
			want: settlement.Decision{HTTPStatus: http.StatusOK, Message: settlement.MsgNoAction, Outcome: settlement.OutcomeNoop},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, settlement.Decide(tc.in)); diff != "" {
				t.Errorf("Decide mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecideIsExhaustiveOverStatuses(t *testing.T) {
	statuses := []reservation.Status{
		reservation.StatusHold, reservation.StatusPending, reservation.StatusConfirmed,
		reservation.StatusActive, reservation.StatusCompleted, reservation.StatusCancelled,
	}
	events := []settlement.EventType{settlement.EventPaymentSucceeded, settlement.EventPaymentFailed, "charge.refunded"}

	for _, status := range statuses {
		for _, ev := range events {
			for _, expired := range []bool{false, true} {
				for _, conflict := range []bool{false, true} {
					d := settlement.Decide(settlement.Input{EventType: ev, CurrentStatus: status, Expired: expired, HasConflict: conflict})
					if d.ShouldUpdate && status != reservation.StatusHold {
						t.Errorf("status %s event %s must not be mutated, got %+v", status, ev, d)
					}
					if d.Message == "" {
						t.Errorf("status %s event %s produced an empty message", status, ev)
					}
					if d.HTTPStatus != http.StatusOK && d.HTTPStatus != http.StatusConflict {
						t.Errorf("unexpected http status %d", d.HTTPStatus)
					}
				}
			}
		}
	}
}

func TestMismatchedIntent(t *testing.T) {
	d := settlement.MismatchedIntent()
	if d.ShouldUpdate || d.HTTPStatus != http.StatusOK || d.Message != settlement.MsgMismatchedIntent {
		t.Errorf("unexpected decision %+v", d)
	}
}
