package response

import (
	"rental-settlement/internal/usecase/commands"
)

type PaymentIntentResponse struct {
	ReservationID   string `json:"reservation_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}

func FromIssueIntentResult(r *commands.IssueIntentResult) *PaymentIntentResponse {
	return &PaymentIntentResponse{
		ReservationID:   r.ReservationID.String(),
		PaymentIntentID: r.PaymentIntentID,
		ClientSecret:    r.ClientSecret,
	}
}
