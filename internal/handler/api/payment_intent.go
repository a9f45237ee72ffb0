package api

import (
	"errors"
	"net/http"

	reqdto "rental-settlement/internal/handler/dto/request"
	resdto "rental-settlement/internal/handler/dto/response"
	"rental-settlement/internal/handler/httperr"
	"rental-settlement/internal/handler/middleware"
	"rental-settlement/internal/pkg/errs"
	"rental-settlement/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

var errNoCaller = errs.New("authenticated caller missing from context")

type PaymentIntentHandler struct {
	cmds commands.PaymentIntentCommands
}

func NewPaymentIntentHandler(cmds commands.PaymentIntentCommands) *PaymentIntentHandler {
	return &PaymentIntentHandler{cmds: cmds}
}

// Create issues (or re-issues) the processor intent for a held reservation.
//
// POST /api/payments/intents
func (h *PaymentIntentHandler) Create(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errNoCaller, "Unauthorized", nil)
		return
	}

	var req reqdto.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperr.AbortWithError(c, http.StatusRequestEntityTooLarge, err, "Payload too large", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	result, err := h.cmds.Issue(c.Request.Context(), caller, req.ReservationID)
	if err != nil {
		status, msg := intentErrorStatus(err)
		httperr.AbortWithError(c, status, err, msg, nil)
		return
	}

	c.JSON(http.StatusOK, resdto.FromIssueIntentResult(result))
}

func intentErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, commands.ErrReservationNotFound):
		return http.StatusNotFound, "Reservation not found"
	case errors.Is(err, commands.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, commands.ErrReservationNotHold):
		return http.StatusConflict, "Reservation is not on hold"
	case errors.Is(err, commands.ErrHoldExpired):
		return http.StatusGone, "Reservation hold has expired"
	case errors.Is(err, commands.ErrInvalidAmount):
		return http.StatusBadRequest, "Reservation amount is invalid"
	case errors.Is(err, commands.ErrPaymentGateway):
		return http.StatusBadGateway, "Payment processor unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
