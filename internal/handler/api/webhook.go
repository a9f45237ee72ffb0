package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"rental-settlement/internal/handler/httperr"
	"rental-settlement/internal/handler/middleware"
	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/ratelimit"
	"rental-settlement/internal/pkg/signature"
	"rental-settlement/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const (
	webhookRoute = "webhook"
	// Bucketing on a short prefix groups one sender's burst without
	// trusting the rest of an unverified id.
	eventIDPrefixLen = 12
)

type WebhookHandler struct {
	cmds     commands.WebhookCommands
	verifier *signature.Verifier
	limiter  ratelimit.Limiter
	cfg      config.Config
}

func NewWebhookHandler(cmds commands.WebhookCommands, verifier *signature.Verifier, limiter ratelimit.Limiter, cfg config.Config) *WebhookHandler {
	return &WebhookHandler{
		cmds:     cmds,
		verifier: verifier,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// Receive handles processor notifications. The status code is the retry
// signal for the processor: 5xx and 429 are redelivered, other 4xx are not.
//
// POST /api/webhooks/payments
func (h *WebhookHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperr.AbortWithText(c, http.StatusRequestEntityTooLarge, err, "Payload too large")
			return
		}
		httperr.AbortWithText(c, http.StatusBadRequest, err, "Unreadable body")
		return
	}

	if err := h.verifier.Verify(payload, c.GetHeader(h.cfg.Webhook.SignatureHeader)); err != nil {
		slog.WarnContext(ctx, "webhook signature rejected", "error", err.Error())
		httperr.AbortWithText(c, http.StatusForbidden, err, "Invalid signature")
		return
	}

	key := ratelimit.Key(webhookRoute, ratelimit.Identifier(eventIDPrefix(payload), c.Request, c.RemoteIP()))
	result, err := h.limiter.Check(ctx, key, h.cfg.RateLimit.WebhookLimit, h.cfg.RateLimit.WebhookWindow)
	if err != nil {
		var exceeded *ratelimit.ExceededError
		if errors.As(err, &exceeded) {
			middleware.AbortRateLimited(c, exceeded, true)
			return
		}
		slog.WarnContext(ctx, "rate limiter unavailable", "key", key, "error", err.Error())
	} else {
		middleware.SetRateLimitHeaders(c, result)
	}

	reconciled, err := h.cmds.Reconcile(ctx, payload)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrMalformedEvent):
			httperr.AbortWithText(c, http.StatusBadRequest, err, "Malformed event")
		case errors.Is(err, commands.ErrReservationNotFound):
			httperr.AbortWithText(c, http.StatusNotFound, err, "Reservation not found")
		default:
			httperr.AbortWithText(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.String(reconciled.Decision.HTTPStatus, reconciled.Decision.Message)
}

func eventIDPrefix(payload []byte) string {
	id := commands.PeekEventID(payload)
	if len(id) > eventIDPrefixLen {
		return id[:eventIDPrefixLen]
	}
	return id
}
