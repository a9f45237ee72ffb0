package request

import (
	"github.com/google/uuid"
)

type CreatePaymentIntentRequest struct {
	ReservationID uuid.UUID `json:"reservation_id" binding:"required"`
}
